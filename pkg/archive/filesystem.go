package archive

import "io"

// FileSystem is the directory abstraction Writer/Reader assemble and
// disassemble an archive against. A plain OS directory satisfies it
// directly; a ZIP-backed implementation — out of scope here per §1 — can
// satisfy it too without any change to the logical archive code.
type FileSystem interface {
	Create(name string) (io.WriteCloser, error)
	Open(name string) (io.ReadCloser, error)
}

// Names of the three logical parts, per §6.1.
const (
	SchemaFileName       = "schema.xml"
	DataFileName         = "data.xml"
	ContentTypesFileName = "[Content_Types].xml"
)

// ContentTypesDocument is §6.1's content-types document, emitted verbatim.
const ContentTypesDocument = `<?xml version="1.0" encoding="utf-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="text/xml"/>
</Types>
`
