package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", New(CodeNotOwner, "caller does not own asset"))
	if !stderrors.Is(err, New(CodeNotOwner, "")) {
		t.Fatal("expected wrapped error to match by code")
	}
	if stderrors.Is(err, New(CodeAlreadyOwned, "")) {
		t.Fatal("expected different code not to match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("insufficient balance")
	err := Wrap(CodeCurrencyTransferFailed, "currency transfer failed", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if got, want := err.Error(), "currency transfer failed: insufficient balance"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := map[Code]codes.Code{
		CodeCounterOverflow:        codes.ResourceExhausted,
		CodeNotOwner:               codes.PermissionDenied,
		CodeAlreadyOwned:           codes.FailedPrecondition,
		CodeSameParentIndex:        codes.InvalidArgument,
		CodeInvalidAssetIndex:      codes.NotFound,
		CodeNotForSale:             codes.FailedPrecondition,
		CodeCurrencyTransferFailed: codes.FailedPrecondition,
		CodeInvalidArgument:        codes.InvalidArgument,
		CodeNotFound:               codes.NotFound,
		CodeUnknown:                codes.Internal,
	}
	for code, want := range tests {
		if got := code.GRPCCode(); got != want {
			t.Fatalf("%s.GRPCCode() = %v, want %v", code, got, want)
		}
	}
}

func TestHandleErrorAttachesDetails(t *testing.T) {
	err := WithMetadata(CodeNotForSale, "asset 4 has no price", map[string]string{"asset_id": "4"})

	st := status.Convert(HandleError(err, "pt-BR"))
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.Reason != string(CodeNotForSale) || info.Domain != Domain {
		t.Fatalf("error info = %v, want reason %s", info, CodeNotForSale)
	}
	if localized == nil {
		t.Fatal("expected localized message")
	}
	if got, want := localized.Message, "O ativo 4 não está à venda."; got != want {
		t.Fatalf("localized = %q, want %q", got, want)
	}
}

func TestHandleErrorUnknown(t *testing.T) {
	if HandleError(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
	st := status.Convert(HandleError(stderrors.New("boom"), ""))
	if st.Code() != codes.Internal {
		t.Fatalf("code = %v, want %v", st.Code(), codes.Internal)
	}
}

func TestCodeHelpers(t *testing.T) {
	err := fmt.Errorf("outer: %w", WithMetadata(CodeInvalidAssetIndex, "missing", map[string]string{"asset_id": "9"}))
	if GetCode(err) != CodeInvalidAssetIndex {
		t.Fatalf("GetCode = %s, want %s", GetCode(err), CodeInvalidAssetIndex)
	}
	if !IsCode(err, CodeInvalidAssetIndex) {
		t.Fatal("expected IsCode to match")
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown code for plain error")
	}
	if got, want := LocalizedMessage(err, "en-US"), "Asset 9 does not exist."; got != want {
		t.Fatalf("LocalizedMessage = %q, want %q", got, want)
	}
}
