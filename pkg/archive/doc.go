// Package archive assembles and disassembles the three logical parts of
// a migration archive (§6.1/§6.3): the schema document (delegated to
// pkg/schema), the data document, and the content-types document. It
// writes against a FileSystem abstraction rather than a concrete ZIP
// container — physical ZIP framing is an explicit non-goal and is left
// to an external collaborator; a plain-directory FileSystem is enough
// to exercise the logical format end to end. Grounded on no single
// teacher file (the teacher has no archive/container concern); the
// data document's XML shape follows the same encoding/xml approach as
// pkg/schema, per DESIGN.md's standard-library justification.
package archive
