// Package schema implements the Schema Generator & Codec: it builds a
// Schema from live metadata, applies the field-include/exclude policy
// from §4.5, and reads/writes the schema document in the archive's XML
// format. No example repo performs deterministic XML generation (the
// corpus favors JSON/protobuf wire formats), so this package uses the
// standard library's encoding/xml rather than reaching for an unrelated
// wire-format dependency — see DESIGN.md's standard-library
// justifications.
package schema
