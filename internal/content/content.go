// Package content implements the untrusted-payload validation pipeline:
// capability gating, a pluggable security scan, base64 format/size
// checks, decode, MIME/magic-byte cross-checking, and an executable/
// corruption heuristic scan.
package content

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/forgecraft/sah/internal/errs"
)

// ProfileName names the three security postures a SecurityProfile can run
// under. Their relative ordering (strict < moderate < permissive) is the
// one contract callers may rely on; the concrete caps below are tunable.
type ProfileName string

const (
	ProfileStrict     ProfileName = "strict"
	ProfileModerate   ProfileName = "moderate"
	ProfilePermissive ProfileName = "permissive"
)

// SecurityProfile bundles the size, allow-list, and SSRF posture a single
// named profile enforces.
type SecurityProfile struct {
	Name             ProfileName
	MaxBase64Size    int // max decoded payload size, bytes
	MaxResourceBytes int // max cumulative resource budget for a single request
	AllowedMIME      map[string]bool
	MaxArrayLength   int
	BlockSSRF        bool
}

// Capability groups MIME types so callers can opt individual content
// kinds in or out (image/audio/text/blob).
type Capability string

const (
	CapabilityImage Capability = "image"
	CapabilityAudio Capability = "audio"
	CapabilityText  Capability = "text"
	CapabilityBlob  Capability = "blob"
)

var mimeCapability = map[string]Capability{
	"image/png":       CapabilityImage,
	"image/jpeg":      CapabilityImage,
	"image/gif":       CapabilityImage,
	"image/webp":      CapabilityImage,
	"audio/wav":       CapabilityAudio,
	"audio/mp3":       CapabilityAudio,
	"audio/mpeg":      CapabilityAudio,
	"audio/ogg":       CapabilityAudio,
	"application/pdf": CapabilityText,
	"text/plain":      CapabilityText,
}

func defaultAllowedMIME(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// StrictProfile is the most conservative posture: small payloads, a
// narrow MIME allow-list, a tight array limit, SSRF blocked.
func StrictProfile() SecurityProfile {
	return SecurityProfile{
		Name:             ProfileStrict,
		MaxBase64Size:    1 * 1024 * 1024,
		MaxResourceBytes: 1 * 1024 * 1024,
		AllowedMIME:      defaultAllowedMIME("image/png", "image/jpeg", "text/plain", "application/pdf"),
		MaxArrayLength:   10,
		BlockSSRF:        true,
	}
}

// ModerateProfile is the default posture: generous size caps, the full
// allow-list, SSRF still blocked.
func ModerateProfile() SecurityProfile {
	return SecurityProfile{
		Name:             ProfileModerate,
		MaxBase64Size:    10 * 1024 * 1024,
		MaxResourceBytes: 50 * 1024 * 1024,
		AllowedMIME:      defaultAllowedMIME("image/png", "image/jpeg", "image/gif", "image/webp", "audio/wav", "audio/mp3", "audio/mpeg", "audio/ogg", "text/plain", "application/pdf"),
		MaxArrayLength:   100,
		BlockSSRF:        true,
	}
}

// PermissiveProfile loosens every cap; SSRF checking is disabled
// entirely, matching the "trusted internal caller" use case.
func PermissiveProfile() SecurityProfile {
	return SecurityProfile{
		Name:             ProfilePermissive,
		MaxBase64Size:    100 * 1024 * 1024,
		MaxResourceBytes: 500 * 1024 * 1024,
		AllowedMIME:      defaultAllowedMIME("image/png", "image/jpeg", "image/gif", "image/webp", "audio/wav", "audio/mp3", "audio/mpeg", "audio/ogg", "text/plain", "application/pdf"),
		MaxArrayLength:   1000,
		BlockSSRF:        false,
	}
}

// ProfileByName resolves a ProfileName to its SecurityProfile, defaulting
// to ModerateProfile for an unrecognized name.
func ProfileByName(name ProfileName) SecurityProfile {
	switch name {
	case ProfileStrict:
		return StrictProfile()
	case ProfilePermissive:
		return PermissiveProfile()
	default:
		return ModerateProfile()
	}
}

// ValidatedPayload is the output of a successful pipeline run: decoded
// bytes plus the MIME type and capability that were verified against
// them. It never retains the source base64 string.
type ValidatedPayload struct {
	Bytes              []byte
	MIMEType           string
	DeclaredCapability Capability
}

// Processor runs the seven-stage validation pipeline over a single
// SecurityProfile.
type Processor struct {
	Profile               SecurityProfile
	EnabledCapabilities   map[Capability]bool
	EnableSecurityScan    bool
	EnableCapabilityCheck bool
}

// NewProcessor builds a Processor under the named profile with every
// capability enabled, the moderate defaults most callers want.
func NewProcessor(name ProfileName) *Processor {
	return &Processor{
		Profile: ProfileByName(name),
		EnabledCapabilities: map[Capability]bool{
			CapabilityImage: true,
			CapabilityAudio: true,
			CapabilityText:  true,
			CapabilityBlob:  true,
		},
		EnableSecurityScan:    true,
		EnableCapabilityCheck: true,
	}
}

// Validate runs the full pipeline in order: capability check,
// security scan, base64 format check, size check, decode, MIME/magic
// cross-check, binary heuristic scan. The first failing stage returns;
// later stages never run once an earlier one has failed.
func (p *Processor) Validate(capability Capability, base64Data, declaredMIME string) (*ValidatedPayload, error) {
	if err := p.checkCapability(capability); err != nil {
		return nil, err
	}
	if err := p.securityScanBase64(base64Data); err != nil {
		return nil, err
	}
	if err := validateBase64Format(base64Data); err != nil {
		return nil, err
	}
	if err := p.checkEstimatedSize(base64Data); err != nil {
		return nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return nil, errs.New(errs.KindContent, "invalid_base64_format", err.Error(), errs.Error).
			WithData(map[string]any{"details": err.Error()})
	}
	if len(decoded) > p.Profile.MaxBase64Size {
		return nil, sizeExceeded(len(decoded), p.Profile.MaxBase64Size)
	}

	if err := p.crossCheckMIME(declaredMIME, decoded); err != nil {
		return nil, err
	}
	if err := binaryHeuristicScan(decoded); err != nil {
		return nil, err
	}

	return &ValidatedPayload{Bytes: decoded, MIMEType: declaredMIME, DeclaredCapability: capability}, nil
}

// DecodeImage is a convenience wrapper for image/* content.
func (p *Processor) DecodeImage(data, mimeType string) ([]byte, error) {
	out, err := p.Validate(CapabilityImage, data, mimeType)
	if err != nil {
		return nil, err
	}
	return out.Bytes, nil
}

// DecodeAudio is a convenience wrapper for audio/* content.
func (p *Processor) DecodeAudio(data, mimeType string) ([]byte, error) {
	out, err := p.Validate(CapabilityAudio, data, mimeType)
	if err != nil {
		return nil, err
	}
	return out.Bytes, nil
}

// DecodeBlob validates any other allow-listed blob type (PDF, plain
// text, ...), inferring its capability from the declared MIME type.
func (p *Processor) DecodeBlob(data, mimeType string) ([]byte, error) {
	capability, ok := mimeCapability[mimeType]
	if !ok {
		capability = CapabilityBlob
	}
	out, err := p.Validate(capability, data, mimeType)
	if err != nil {
		return nil, err
	}
	return out.Bytes, nil
}

func (p *Processor) checkCapability(c Capability) error {
	if !p.EnableCapabilityCheck {
		return nil
	}
	if !p.EnabledCapabilities[c] {
		return errs.New(errs.KindContent, "capability_not_supported",
			"capability not supported: "+string(c), errs.Error).
			WithData(map[string]any{"requiredCapability": string(c)})
	}
	return nil
}

// securityScanBase64 is the "enhanced security scan" stage: a pluggable
// pre-decode check, here limited to the array-length cap a
// multi-payload caller would otherwise bypass by never decoding.
func (p *Processor) securityScanBase64(data string) error {
	if !p.EnableSecurityScan {
		return nil
	}
	if p.Profile.MaxArrayLength > 0 && len(data) > p.Profile.MaxArrayLength*p.Profile.MaxBase64Size {
		return errs.New(errs.KindContent, "security_validation_failed_internal",
			"payload exceeds the security validator's resource budget", errs.Error)
	}
	return nil
}

// checkEstimatedSize rejects payloads whose *encoded* length already
// implies a decoded size over the cap, before paying for a full decode.
func (p *Processor) checkEstimatedSize(data string) error {
	estimated := base64.StdEncoding.DecodedLen(len(data))
	if estimated > p.Profile.MaxBase64Size {
		return sizeExceeded(estimated, p.Profile.MaxBase64Size)
	}
	return nil
}

func sizeExceeded(size, max int) error {
	return errs.New(errs.KindContent, "content_size_exceeded", "content exceeds maximum size", errs.Error).
		WithData(map[string]any{"providedSize": size, "maxSize": max})
}

// crossCheckMIME enforces that declaredMIME is in the profile's allow
// list AND that decoded's leading bytes match the magic number known
// for that MIME type. A declared type whose bytes belong to a
// *different* known format fails as FormatMismatch rather than the
// more generic "not allowed".
func (p *Processor) crossCheckMIME(declaredMIME string, decoded []byte) error {
	if !p.Profile.AllowedMIME[declaredMIME] {
		return mimeTypeNotAllowed(declaredMIME)
	}

	if err := verifyMagic(declaredMIME, decoded); err != nil {
		// The bytes don't match the declared format's magic number. If they
		// match a *different* known format, that's a clear format mismatch.
		// If they match no known format at all (e.g. an executable's
		// signature, or plain garbage), don't fail the cross-check here:
		// the binary heuristic scan that runs next is the stage responsible
		// for rejecting that content, and reports the more specific
		// SecurityValidationFailed rather than a generic format complaint.
		if actual := detectMIMEFromMagic(decoded); actual != "" && actual != declaredMIME {
			return formatMismatch(declaredMIME, actual)
		}
		return nil
	}
	return nil
}

func mimeTypeNotAllowed(mimeType string) error {
	return errs.New(errs.KindContent, "mime_type_not_allowed", "MIME type not allowed: "+mimeType, errs.Error).
		WithData(map[string]any{"mimeType": mimeType})
}

func formatMismatch(expected, actual string) error {
	return errs.New(errs.KindContent, "format_mismatch",
		fmt.Sprintf("declared MIME type %q does not match detected format %q", expected, actual), errs.Error).
		WithData(map[string]any{"expected": expected, "actual": actual})
}

// --- magic-byte verification ---

var magicPrefixes = map[string][]byte{
	"image/png":       {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"image/jpeg":      {0xFF, 0xD8, 0xFF},
	"image/gif":       {0x47, 0x49, 0x46, 0x38},
	"audio/wav":       {0x52, 0x49, 0x46, 0x46}, // RIFF....WAVE, checked specially below
	"audio/ogg":       {0x4F, 0x67, 0x67, 0x53},
	"application/pdf": {0x25, 0x50, 0x44, 0x46},
}

// verifyMagic checks decoded's leading bytes against the magic number
// known for mimeType. WebP and WAV share the RIFF container prefix and
// are distinguished by bytes 8-11; MP3 accepts either an ID3 tag or a
// frame sync pattern since both appear in the wild without the other.
func verifyMagic(mimeType string, decoded []byte) error {
	switch mimeType {
	case "image/webp":
		if hasRIFFFormType(decoded, "WEBP") {
			return nil
		}
		return badMagic(mimeType)
	case "audio/wav":
		if hasRIFFFormType(decoded, "WAVE") {
			return nil
		}
		return badMagic(mimeType)
	case "audio/mp3", "audio/mpeg":
		if hasPrefix(decoded, []byte{0x49, 0x44, 0x33}) {
			return nil
		}
		if len(decoded) >= 2 && decoded[0] == 0xFF && decoded[1]&0xE0 == 0xE0 {
			return nil
		}
		return badMagic(mimeType)
	}

	prefix, known := magicPrefixes[mimeType]
	if !known {
		// No magic registered for this MIME type; nothing to cross-check.
		return nil
	}
	if !hasPrefix(decoded, prefix) {
		return badMagic(mimeType)
	}
	return nil
}

func badMagic(mimeType string) error {
	return errs.New(errs.KindContent, "unsupported_format",
		"decoded content does not match the magic bytes for "+mimeType, errs.Error).
		WithData(map[string]any{"mimeType": mimeType})
}

// hasRIFFFormType checks the RIFF container magic ("RIFF" + 4-byte size
// + form type, e.g. "WEBP" or "WAVE") at bytes 0-3 and 8-11.
func hasRIFFFormType(data []byte, formType string) bool {
	if len(data) < 12 {
		return false
	}
	return hasPrefix(data, []byte("RIFF")) && string(data[8:12]) == formType
}

// detectMIMEFromMagic best-effort sniffs decoded's actual format for a
// FormatMismatch error's "actual" field; it does not replace
// verifyMagic as the authoritative check.
func detectMIMEFromMagic(decoded []byte) string {
	switch {
	case hasPrefix(decoded, magicPrefixes["image/png"]):
		return "image/png"
	case hasPrefix(decoded, magicPrefixes["image/jpeg"]):
		return "image/jpeg"
	case hasPrefix(decoded, magicPrefixes["image/gif"]):
		return "image/gif"
	case hasRIFFFormType(decoded, "WEBP"):
		return "image/webp"
	case hasRIFFFormType(decoded, "WAVE"):
		return "audio/wav"
	case hasPrefix(decoded, magicPrefixes["audio/ogg"]):
		return "audio/ogg"
	case hasPrefix(decoded, magicPrefixes["application/pdf"]):
		return "application/pdf"
	default:
		return ""
	}
}

// --- base64 format / binary heuristics ---

// validateBase64Format rejects empty input, non-base64-alphabet
// characters, and incorrect padding before an actual decode attempt, so
// malformed input reports "invalid base64" rather than a generic decode
// failure.
func validateBase64Format(data string) error {
	if data == "" {
		return errs.New(errs.KindContent, "invalid_base64_format", "empty base64 data", errs.Error)
	}
	for _, r := range data {
		ok := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '+' || r == '/' || r == '='
		if !ok {
			return errs.New(errs.KindContent, "invalid_base64_format", "contains invalid characters", errs.Error)
		}
	}
	if len(data)%4 != 0 {
		return errs.New(errs.KindContent, "invalid_base64_format", "invalid base64 padding", errs.Error)
	}
	return nil
}

var executableMagics = [][]byte{
	[]byte("MZ"),             // DOS/Windows
	[]byte("\x7fELF"),        // Linux ELF
	{0xFE, 0xED, 0xFA, 0xCE}, // Mach-O 32-bit BE
	{0xFE, 0xED, 0xFA, 0xCF}, // Mach-O 64-bit BE
	{0xCE, 0xFA, 0xED, 0xFE}, // Mach-O 32-bit LE
	{0xCF, 0xFA, 0xED, 0xFE}, // Mach-O 64-bit LE
}

// binaryHeuristicScan rejects payloads that begin with a known
// executable magic number, or that are mostly null bytes (a cheap
// corruption/crafted-payload signal).
func binaryHeuristicScan(decoded []byte) error {
	for _, magic := range executableMagics {
		if hasPrefix(decoded, magic) {
			return errs.New(errs.KindContent, "security_validation_failed",
				"content matches a known executable signature", errs.Error)
		}
	}

	if len(decoded) >= 16 {
		nullCount := 0
		for _, b := range decoded {
			if b == 0 {
				nullCount++
			}
		}
		if nullCount*2 > len(decoded) {
			return errs.New(errs.KindContent, "security_validation_failed",
				"content is more than half null bytes", errs.Error)
		}
	}
	return nil
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i := range prefix {
		if data[i] != prefix[i] {
			return false
		}
	}
	return true
}

// NormalizeMIME lower-cases and trims a caller-supplied MIME string
// before it's used as a map key, tolerating the minor casing
// inconsistencies real clients send.
func NormalizeMIME(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(mimeType))
}
