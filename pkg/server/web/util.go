package web

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/jxeal/superdev-quiz/pkg/instruction"
)

type failureBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeFailure(log *logrus.Entry, w http.ResponseWriter, statusCode int, message string) {
	writeJSON(log, w, statusCode, failureBody{Error: message})
}

func writeJSON(log *logrus.Entry, w http.ResponseWriter, statusCode int, body any) {
	encoded, err := json.Marshal(body)
	if err != nil {
		log.WithError(err).Warn("failure marshalling response")

		statusCode = http.StatusInternalServerError
		encoded, _ = json.Marshal(instruction.Failure[struct{}](err))
	}

	w.Header().Set(contentTypeHeaderName, jsonContentTypeHeaderValue)
	w.WriteHeader(statusCode)
	if _, err := w.Write(encoded); err != nil {
		log.WithError(err).Debug("failure writing response")
	}
}
