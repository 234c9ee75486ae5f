package archive

import (
	"io"

	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/joshsmithxrm/ppds-engine/pkg/schema"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/rs/zerolog"
)

// Writer assembles a migration archive's three logical parts against a
// FileSystem (§6.3).
type Writer struct {
	fs     FileSystem
	logger zerolog.Logger
}

// NewWriter constructs a Writer over fs.
func NewWriter(fs FileSystem) *Writer {
	return &Writer{fs: fs, logger: log.WithComponent("archive")}
}

// Write emits schema.xml, data.xml, and [Content_Types].xml for data.
func (w *Writer) Write(data *types.MigrationData) error {
	if err := w.writeFile(SchemaFileName, func(wc io.Writer) error {
		return schema.WriteSchema(data.Schema, wc)
	}); err != nil {
		return err
	}
	if err := w.writeFile(DataFileName, func(wc io.Writer) error {
		return WriteData(data, wc)
	}); err != nil {
		return err
	}
	if err := w.writeFile(ContentTypesFileName, func(wc io.Writer) error {
		_, err := io.WriteString(wc, ContentTypesDocument)
		return err
	}); err != nil {
		return err
	}
	w.logger.Info().
		Int("entities", len(data.Schema.Entities)).
		Msg("archive written")
	return nil
}

func (w *Writer) writeFile(name string, fn func(io.Writer) error) error {
	f, err := w.fs.Create(name)
	if err != nil {
		return types.NewConfigurationError("failed to create "+name, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Reader disassembles a migration archive previously produced by Writer.
type Reader struct {
	fs     FileSystem
	logger zerolog.Logger
}

// NewReader constructs a Reader over fs.
func NewReader(fs FileSystem) *Reader {
	return &Reader{fs: fs, logger: log.WithComponent("archive")}
}

// Read parses schema.xml and data.xml into a MigrationData. It does not
// validate [Content_Types].xml beyond requiring it to be present, per
// §6.1's "required by the container conventions."
func (r *Reader) Read() (*types.MigrationData, error) {
	if _, err := r.fs.Open(ContentTypesFileName); err != nil {
		return nil, types.NewConfigurationError("missing "+ContentTypesFileName, err)
	}

	s, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	f, err := r.fs.Open(DataFileName)
	if err != nil {
		return nil, types.NewConfigurationError("missing "+DataFileName, err)
	}
	defer f.Close()

	data, err := ReadData(f, s)
	if err != nil {
		return nil, err
	}
	r.logger.Info().Int("entities", len(s.Entities)).Msg("archive read")
	return data, nil
}

func (r *Reader) readSchema() (types.Schema, error) {
	f, err := r.fs.Open(SchemaFileName)
	if err != nil {
		return types.Schema{}, types.NewConfigurationError("missing "+SchemaFileName, err)
	}
	defer f.Close()
	return schema.ReadSchema(f)
}
