// Package payload provides offline tooling around share payloads.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/payload"
)

var ErrInvalid = errors.New("payload is invalid")

type options struct {
	file     string
	format   int
	maxBytes int
	pretty   bool
}

func NewPayloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "encode and check share payloads",
	}
	cmd.AddCommand(newEncodeCmd(), newCheckCmd(), newDecodeCmd())
	return cmd
}

func newEncodeCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encodes a project file (yaml or json) into a share payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return encode(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "project file, - reads stdin (yaml)")
	cmd.Flags().IntVar(&opts.format, "format", payload.Version2, "payload version (1 or 2)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the output")
	return cmd
}

func newCheckCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "validates a share payload, exits with 1 if invalid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return check(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "payload file, - reads stdin")
	cmd.Flags().IntVar(&opts.maxBytes, "max-payload-bytes", payload.MaxBytes,
		"size ceiling for share payloads")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "turns a share payload back into an editable project (yaml)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return decode(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "payload file, - reads stdin")
	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}

func readProject(stdin io.Reader, file string) (*model.Project, error) {
	data, err := readInput(stdin, file)
	if err != nil {
		return nil, err
	}
	var p model.Project
	if strings.EqualFold(filepath.Ext(file), ".json") {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", file, err)
	}
	return &p, nil
}

func encode(stdin io.Reader, out io.Writer, opts *options) error {
	p, err := readProject(stdin, opts.file)
	if err != nil {
		return err
	}
	enc, err := payload.Encode(p, opts.format)
	if err != nil {
		return err
	}
	data, err := payload.Marshal(enc)
	if err != nil {
		return err
	}
	if opts.pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func check(stdin io.Reader, out io.Writer, opts *options) error {
	data, err := readInput(stdin, opts.file)
	if err != nil {
		return err
	}
	p, err := payload.Decode(data, payload.WithMaxBytes(opts.maxBytes))
	var valErr *payload.ValidationError
	switch {
	case err == nil:
		fmt.Fprintf(out, "valid version %d payload, %d bytes\n", p.SchemaVersion(), len(data))
		return nil
	case errors.As(err, &valErr):
		for _, v := range valErr.Violations {
			fmt.Fprintln(out, v.String())
		}
	default:
		fmt.Fprintln(out, err.Error())
	}
	return ErrInvalid
}

func decode(stdin io.Reader, out io.Writer, opts *options) error {
	data, err := readInput(stdin, opts.file)
	if err != nil {
		return err
	}
	p, err := payload.Decode(data, payload.WithMaxBytes(len(data)))
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(payload.ToProject(p))
}
