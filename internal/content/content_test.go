package content

import (
	"testing"

	"github.com/forgecraft/sah/internal/errs"
)

const pngBase64 = "iVBORw0KGgpyZXN0b2ZwbmdkYXRhLi4u"
const mzBase64 = "TVp4eHh4eHh4eHh4eHh4eHh4eHh4eHh4eHh4eHh4eHg="

func mustE(t *testing.T, err error) *errs.E {
	t.Helper()
	var e *errs.E
	if !errs.As(err, &e) {
		t.Fatalf("expected *errs.E, got %T: %v", err, err)
	}
	return e
}

func TestValidate_ExecutableMagicFailsSecurity(t *testing.T) {
	p := NewProcessor(ProfileModerate)
	_, err := p.Validate(CapabilityImage, mzBase64, "image/png")
	if err == nil {
		t.Fatal("expected error for MZ-prefixed payload")
	}
	e := mustE(t, err)
	if e.Code != "security_validation_failed" {
		t.Fatalf("expected security_validation_failed, got %q", e.Code)
	}
	if e.JSONRPCCode() != -32602 {
		t.Fatalf("expected -32602, got %d", e.JSONRPCCode())
	}
}

func TestValidate_FormatMismatch(t *testing.T) {
	p := NewProcessor(ProfileModerate)
	_, err := p.Validate(CapabilityImage, pngBase64, "image/jpeg")
	if err == nil {
		t.Fatal("expected format mismatch error")
	}
	e := mustE(t, err)
	if e.Code != "format_mismatch" {
		t.Fatalf("expected format_mismatch, got %q", e.Code)
	}
	if e.Data["expected"] != "image/jpeg" || e.Data["actual"] != "image/png" {
		t.Fatalf("unexpected data: %#v", e.Data)
	}
}

func TestValidate_ValidPNG(t *testing.T) {
	p := NewProcessor(ProfileModerate)
	out, err := p.Validate(CapabilityImage, pngBase64, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Bytes) == 0 {
		t.Fatal("expected decoded bytes")
	}
}

func TestValidate_SizeExceeded(t *testing.T) {
	p := NewProcessor(ProfileStrict)
	p.Profile.MaxBase64Size = 4 // absurdly small
	_, err := p.Validate(CapabilityImage, pngBase64, "image/png")
	if err == nil {
		t.Fatal("expected size exceeded error")
	}
	e := mustE(t, err)
	if e.Code != "content_size_exceeded" {
		t.Fatalf("expected content_size_exceeded, got %q", e.Code)
	}
}

func TestValidate_CapabilityNotSupported(t *testing.T) {
	p := NewProcessor(ProfileModerate)
	delete(p.EnabledCapabilities, CapabilityAudio)
	_, err := p.Validate(CapabilityAudio, pngBase64, "audio/wav")
	if err == nil {
		t.Fatal("expected capability not supported error")
	}
	e := mustE(t, err)
	if e.Code != "capability_not_supported" {
		t.Fatalf("expected capability_not_supported, got %q", e.Code)
	}
}

func TestValidate_InvalidBase64(t *testing.T) {
	p := NewProcessor(ProfileModerate)
	_, err := p.Validate(CapabilityImage, "not-valid-base64!!", "image/png")
	if err == nil {
		t.Fatal("expected invalid base64 error")
	}
	e := mustE(t, err)
	if e.Code != "invalid_base64_format" {
		t.Fatalf("expected invalid_base64_format, got %q", e.Code)
	}
}

func TestProfileOrdering(t *testing.T) {
	strict, moderate, permissive := StrictProfile(), ModerateProfile(), PermissiveProfile()
	if !(strict.MaxBase64Size < moderate.MaxBase64Size && moderate.MaxBase64Size < permissive.MaxBase64Size) {
		t.Fatal("expected strict < moderate < permissive size caps")
	}
	if !strict.BlockSSRF || !moderate.BlockSSRF || permissive.BlockSSRF {
		t.Fatal("expected SSRF blocked except under permissive")
	}
}

func TestMimeTypeNotAllowed(t *testing.T) {
	p := NewProcessor(ProfileStrict)
	_, err := p.Validate(CapabilityAudio, pngBase64, "audio/wav")
	if err == nil {
		t.Fatal("expected mime type not allowed under strict profile")
	}
	e := mustE(t, err)
	if e.Code != "mime_type_not_allowed" {
		t.Fatalf("expected mime_type_not_allowed, got %q", e.Code)
	}
}
