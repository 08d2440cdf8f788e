package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgecraft/sah/internal/content"
)

// newValidateCommand runs a base64 payload through the content
// validation pipeline standalone, outside of any tool call, so a caller
// can check a payload before embedding it in an MCP request.
func newValidateCommand() *cobra.Command {
	var (
		capability string
		mimeType   string
		profile    string
		dataFlag   string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a base64 payload against the content security pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := dataFlag
			if data == "" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading payload from stdin: %w", err)
				}
				data = strings.TrimSpace(string(raw))
			}
			if data == "" {
				return fmt.Errorf("no payload supplied: pass --data or pipe base64 on stdin")
			}
			if mimeType == "" {
				return fmt.Errorf("--mime is required")
			}

			name := content.ProfileName(profile)
			switch name {
			case content.ProfileStrict, content.ProfileModerate, content.ProfilePermissive:
			default:
				return fmt.Errorf("unknown profile %q (must be strict, moderate, or permissive)", profile)
			}

			proc := content.NewProcessor(name)
			payload, err := proc.Validate(content.Capability(capability), data, mimeType)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "valid: %d bytes, mime=%s, capability=%s\n",
				len(payload.Bytes), payload.MIMEType, payload.DeclaredCapability)
			return nil
		},
	}

	cmd.Flags().StringVar(&capability, "capability", "", "expected content capability (image, audio, text, blob)")
	cmd.Flags().StringVar(&mimeType, "mime", "", "declared MIME type")
	cmd.Flags().StringVar(&profile, "profile", string(content.ProfileModerate), "security profile (strict, moderate, permissive)")
	cmd.Flags().StringVar(&dataFlag, "data", "", "base64 payload (default: read from stdin)")
	return cmd
}
