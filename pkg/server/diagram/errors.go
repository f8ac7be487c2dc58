package diagram

import (
	"context"
	"errors"
	"strconv"

	"connectrpc.com/connect"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/protobuf/proto"

	"github.com/coachboard/coachboard-service/pkg/auth"
	"github.com/coachboard/coachboard-service/pkg/payload"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
)

const errorDomain = "coachboard.app"

const (
	ReasonPayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ReasonPayloadInvalid     = "PAYLOAD_INVALID"
	ReasonUnsupportedVersion = "PAYLOAD_UNSUPPORTED_VERSION"
	ReasonStoredPayload      = "STORED_PAYLOAD_INVALID"
)

const (
	classSize    = "size"
	classShape   = "shape"
	classVersion = "version"
)

var (
	ErrNotAUser     = errors.New("principal is not backed by a user")
	ErrInvalidID    = errors.New("invalid diagram id")
	ErrInvalidScope = errors.New("invalid scope")
)

func errPermissionDenied() *connect.Error {
	return connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
}

// rejectionClass is the value of the class attribute on the rejected metric.
func rejectionClass(err error) string {
	switch {
	case errors.Is(err, payload.ErrPayloadTooLarge):
		return classSize
	case errors.Is(err, payload.ErrUnsupportedVersion):
		return classVersion
	default:
		return classShape
	}
}

func (s *diagramServer) recordRejection(ctx context.Context, err error) {
	s.rejected.Add(ctx, 1,
		metric.WithAttributes(attribute.String("class", rejectionClass(err))))
}

// payloadError maps codec errors to connect errors carrying structured
// details. Clients find the offending fields in errdetails.BadRequest.
func payloadError(code connect.Code, err error) *connect.Error {
	var sizeErr *payload.SizeError
	var valErr *payload.ValidationError
	switch {
	case errors.As(err, &sizeErr):
		ret := connect.NewError(connect.CodeResourceExhausted, err)
		addDetail(ret, &errdetails.ErrorInfo{
			Reason: ReasonPayloadTooLarge,
			Domain: errorDomain,
			Metadata: map[string]string{
				"size":  strconv.Itoa(sizeErr.Size),
				"limit": strconv.Itoa(sizeErr.Limit),
			},
		})
		return ret
	case errors.As(err, &valErr):
		ret := connect.NewError(code, err)
		reason := ReasonPayloadInvalid
		if code == connect.CodeDataLoss {
			reason = ReasonStoredPayload
		} else if errors.Is(err, payload.ErrUnsupportedVersion) {
			reason = ReasonUnsupportedVersion
		}
		addDetail(ret, &errdetails.ErrorInfo{
			Reason:   reason,
			Domain:   errorDomain,
			Metadata: map[string]string{"version": strconv.Itoa(valErr.Version)},
		})
		addDetail(ret, &errdetails.BadRequest{
			FieldViolations: lo.Map(valErr.Violations,
				func(v payload.Violation, _ int) *errdetails.BadRequest_FieldViolation {
					return &errdetails.BadRequest_FieldViolation{
						Field:       v.Path.String(),
						Description: v.Message,
					}
				}),
		})
		return ret
	}
	return connect.NewError(connect.CodeInternal, err)
}

func addDetail(e *connect.Error, msg proto.Message) {
	if d, err := connect.NewErrorDetail(msg); err == nil {
		e.AddDetail(d)
	}
}

// toConnectError is applied to every error leaving a handler.
func toConnectError(err error) error {
	var cErr *connect.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &cErr):
		return cErr
	case errors.Is(err, payload.ErrPayloadTooLarge),
		errors.Is(err, payload.ErrInvalidPayload):
		return payloadError(connect.CodeInvalidArgument, err)
	case errors.Is(err, api.ErrNoRows):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, api.ErrDuplicate):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, ErrNotAUser):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidScope):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
