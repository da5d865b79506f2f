// Package api implements the operations behind each API route. Every
// operation validates presence and ranges first, then decodes, then builds, and
// always returns a single ApiResult.
package api

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jxeal/superdev-quiz/pkg/apierr"
	"github.com/jxeal/superdev-quiz/pkg/codec"
	"github.com/jxeal/superdev-quiz/pkg/instruction"
	"github.com/jxeal/superdev-quiz/pkg/keys"
	"github.com/jxeal/superdev-quiz/pkg/metrics"
	"github.com/jxeal/superdev-quiz/pkg/solana/token"
	"github.com/jxeal/superdev-quiz/pkg/validation"
)

const (
	metricsStructName = "api.server"

	failureCountMetricName   = "InstructionServer/failures_"
	durationMetricName       = "InstructionServer/duration_"
	internalFailureEventName = "InstructionServerInternalFailure"

	createTokenEmptyMessage   = "Mint and Mint Authority fields cannot be empty"
	invalidPublicKeyMessage   = "Invalid base58 public key"
	amountOutOfRangeMessage   = "Amount must be greater than 0"
	lamportsOutOfRangeMessage = "Lamports must be greater than 0"
)

// Overridden in tests to observe what gets reported.
var (
	recordCount    = metrics.RecordCount
	recordDuration = metrics.RecordDuration
	recordEvent    = metrics.RecordEvent
)

type Server struct {
	log *logrus.Entry
}

func NewServer() *Server {
	return &Server{
		log: logrus.StandardLogger().WithField("type", "api/server"),
	}
}

func (s *Server) GenerateKeypair(ctx context.Context) instruction.ApiResult[KeypairResponse] {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GenerateKeypair")
	defer tracer.End()
	defer observe(ctx, "GenerateKeypair", time.Now())

	kp, err := keys.GenerateKeypair()
	if err != nil {
		return failure[KeypairResponse](ctx, tracer, s.log.WithField("method", "GenerateKeypair"), err)
	}
	defer kp.Release()

	return instruction.Success(KeypairResponse{
		PublicKey: kp.PublicKey().String(),
		Secret:    kp.SecretString(),
	})
}

func (s *Server) CreateToken(ctx context.Context, req *CreateTokenRequest) instruction.ApiResult[instruction.Descriptor] {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateToken")
	defer tracer.End()
	defer observe(ctx, "CreateToken", time.Now())

	log := s.log.WithField("method", "CreateToken")

	if err := validation.RequireNonEmpty(createTokenEmptyMessage, req.Mint, req.MintAuthority); err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}
	if err := validation.RequireDecimals(req.Decimals); err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}

	mint, err := parseAddress(req.Mint, invalidPublicKeyMessage, invalidPublicKeyMessage)
	if err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}
	mintAuthority, err := parseAddress(req.MintAuthority, invalidPublicKeyMessage, invalidPublicKeyMessage)
	if err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}

	ix, err := instruction.BuildCreateMint(mint.ToBytes(), mintAuthority.ToBytes(), uint8(req.Decimals))
	if err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}
	return instruction.Success(instruction.Render(ix))
}

func (s *Server) MintToken(ctx context.Context, req *MintTokenRequest) instruction.ApiResult[instruction.Descriptor] {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MintToken")
	defer tracer.End()
	defer observe(ctx, "MintToken", time.Now())

	log := s.log.WithField("method", "MintToken")

	if err := validation.RequireNonEmpty(validation.MissingFieldsMessage, req.Mint, req.Destination, req.Authority); err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}
	if err := validation.RequirePositive(amountOutOfRangeMessage, req.Amount); err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}

	var addresses [3]keys.PublicKey
	for i, text := range []string{req.Mint, req.Destination, req.Authority} {
		pub, err := parseAddress(text, invalidPublicKeyMessage, invalidPublicKeyMessage)
		if err != nil {
			return failure[instruction.Descriptor](ctx, tracer, log, err)
		}
		addresses[i] = pub
	}

	ix, err := instruction.BuildMintTo(addresses[0].ToBytes(), addresses[1].ToBytes(), addresses[2].ToBytes(), req.Amount)
	if err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}
	return instruction.Success(instruction.Render(ix))
}

// SignMessage signs the UTF-8 bytes of the message. An empty message is
// allowed. An empty secret decodes to zero bytes and fails the length check.
func (s *Server) SignMessage(ctx context.Context, req *SignMessageRequest) instruction.ApiResult[SignMessageResponse] {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SignMessage")
	defer tracer.End()
	defer observe(ctx, "SignMessage", time.Now())

	log := s.log.WithField("method", "SignMessage")

	kp, err := keys.ReconstructKeypair(req.Secret)
	if err != nil {
		switch apierr.KindOf(err) {
		case apierr.KindInvalidEncoding:
			err = apierr.WithMessage(err, "Invalid base58-encoded secret key")
		case apierr.KindWrongByteLength:
			err = apierr.WithMessage(err, "Secret key must be 64 bytes")
		case apierr.KindMalformedKeyOrSignature:
			err = apierr.WithMessage(err, "Failed to parse secret key into Keypair")
		}
		return failure[SignMessageResponse](ctx, tracer, log, err)
	}
	defer kp.Release()

	sig, err := kp.Sign([]byte(req.Message))
	if err != nil {
		return failure[SignMessageResponse](ctx, tracer, log, err)
	}

	return instruction.Success(SignMessageResponse{
		Signature: sig.String(),
		PublicKey: kp.PublicKey().String(),
		Message:   req.Message,
	})
}

// VerifyMessage reports whether the signature is valid. A well formed
// signature that doesn't verify is a successful result with Valid unset.
func (s *Server) VerifyMessage(ctx context.Context, req *VerifyMessageRequest) instruction.ApiResult[VerifyMessageResponse] {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "VerifyMessage")
	defer tracer.End()
	defer observe(ctx, "VerifyMessage", time.Now())

	log := s.log.WithField("method", "VerifyMessage")

	if err := validation.RequireNonEmpty(validation.MissingFieldsMessage, req.Message, req.Signature, req.PublicKey); err != nil {
		return failure[VerifyMessageResponse](ctx, tracer, log, err)
	}

	sig, err := keys.ParseSignature(req.Signature)
	if err != nil {
		switch apierr.KindOf(err) {
		case apierr.KindInvalidEncoding:
			err = apierr.WithMessage(err, "Invalid base64 signature")
		case apierr.KindWrongByteLength:
			err = apierr.WithMessage(err, "Signature must be 64 bytes")
		}
		return failure[VerifyMessageResponse](ctx, tracer, log, err)
	}

	pub, err := keys.ParseVerifyingKey(req.PublicKey)
	if err != nil {
		switch apierr.KindOf(err) {
		case apierr.KindInvalidEncoding:
			err = apierr.WithMessage(err, invalidPublicKeyMessage)
		case apierr.KindWrongByteLength:
			err = apierr.WithMessage(err, "Public key must be 32 bytes")
		case apierr.KindMalformedKeyOrSignature:
			err = apierr.WithMessage(err, "Malformed public key")
		}
		return failure[VerifyMessageResponse](ctx, tracer, log, err)
	}

	return instruction.Success(VerifyMessageResponse{
		Valid:     keys.Verify(pub, []byte(req.Message), sig),
		Message:   req.Message,
		PublicKey: req.PublicKey,
	})
}

func (s *Server) SendSol(ctx context.Context, req *SendSolRequest) instruction.ApiResult[instruction.AddressDescriptor] {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SendSol")
	defer tracer.End()
	defer observe(ctx, "SendSol", time.Now())

	log := s.log.WithField("method", "SendSol")

	if err := validation.RequireNonEmpty(validation.MissingFieldsMessage, req.From, req.To); err != nil {
		return failure[instruction.AddressDescriptor](ctx, tracer, log, err)
	}
	if err := validation.RequirePositive(lamportsOutOfRangeMessage, req.Lamports); err != nil {
		return failure[instruction.AddressDescriptor](ctx, tracer, log, err)
	}

	from, err := parseAddress(req.From, "Invalid sender public key", "Sender public key must be 32 bytes")
	if err != nil {
		return failure[instruction.AddressDescriptor](ctx, tracer, log, err)
	}
	to, err := parseAddress(req.To, "Invalid recipient public key", "Recipient public key must be 32 bytes")
	if err != nil {
		return failure[instruction.AddressDescriptor](ctx, tracer, log, err)
	}

	ix, err := instruction.BuildSolTransfer(from.ToBytes(), to.ToBytes(), req.Lamports)
	if err != nil {
		return failure[instruction.AddressDescriptor](ctx, tracer, log, err)
	}
	return instruction.Success(instruction.RenderAddresses(ix))
}

func (s *Server) SendToken(ctx context.Context, req *SendTokenRequest) instruction.ApiResult[instruction.Descriptor] {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SendToken")
	defer tracer.End()
	defer observe(ctx, "SendToken", time.Now())

	log := s.log.WithField("method", "SendToken")

	if err := validation.RequireNonEmpty(validation.MissingFieldsMessage, req.Destination, req.Mint, req.Owner); err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}
	if err := validation.RequirePositive(amountOutOfRangeMessage, req.Amount); err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}

	destination, err := parseNamedAddress(req.Destination, "destination")
	if err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}
	mint, err := parseNamedAddress(req.Mint, "mint")
	if err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}
	owner, err := parseNamedAddress(req.Owner, "owner")
	if err != nil {
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}

	ix, err := instruction.BuildTokenTransfer(destination.ToBytes(), mint.ToBytes(), owner.ToBytes(), req.Amount)
	if err != nil {
		err = apierr.WithMessage(err, "Failed to create token transfer instruction")
		return failure[instruction.Descriptor](ctx, tracer, log, err)
	}
	return instruction.Success(instruction.Render(ix))
}

// DeriveAssociatedAccount returns the associated token account address of an
// owner for a mint, along with its bump seed. Nothing is fetched from chain.
func (s *Server) DeriveAssociatedAccount(ctx context.Context, req *AssociatedAccountRequest) instruction.ApiResult[AssociatedAccountResponse] {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "DeriveAssociatedAccount")
	defer tracer.End()
	defer observe(ctx, "DeriveAssociatedAccount", time.Now())

	log := s.log.WithField("method", "DeriveAssociatedAccount")

	if err := validation.RequireNonEmpty(validation.MissingFieldsMessage, req.Owner, req.Mint); err != nil {
		return failure[AssociatedAccountResponse](ctx, tracer, log, err)
	}

	owner, err := parseNamedAddress(req.Owner, "owner")
	if err != nil {
		return failure[AssociatedAccountResponse](ctx, tracer, log, err)
	}
	mint, err := parseNamedAddress(req.Mint, "mint")
	if err != nil {
		return failure[AssociatedAccountResponse](ctx, tracer, log, err)
	}

	addr, bump, err := token.GetAssociatedAccountAndBump(owner.ToBytes(), mint.ToBytes())
	if err != nil {
		err = apierr.Wrap(err, apierr.KindBuilderFailure, "Failed to derive associated token account")
		return failure[AssociatedAccountResponse](ctx, tracer, log, err)
	}

	return instruction.Success(AssociatedAccountResponse{
		Address: codec.EncodeBase58(addr),
		Bump:    bump,
	})
}

func failure[T any](ctx context.Context, tracer *metrics.MethodTracer, log *logrus.Entry, err error) instruction.ApiResult[T] {
	kind := apierr.KindOf(err)

	log = log.WithField("kind", kind.String())
	if apierr.IsClientError(err) {
		log.WithError(err).Info("rejected request")
	} else {
		log.WithError(err).Warn("failure handling request")
		tracer.OnError(err)

		recordEvent(ctx, internalFailureEventName, map[string]interface{}{
			"kind":  kind.String(),
			"error": err.Error(),
		})
	}

	recordCount(ctx, failureCountMetricName+kind.String(), 1)
	return instruction.Failure[T](err)
}

// observe reports the latency of method on success and failure alike.
func observe(ctx context.Context, method string, start time.Time) {
	recordDuration(ctx, durationMetricName+method, time.Since(start))
}
