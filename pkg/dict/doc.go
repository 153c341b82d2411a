// Package dict identifies CIF dictionary dialects and constructs the right
// parser for each. Detection is a weighted scan for dialect-specific markers
// (DDLm save frames with _definition.id, DDL2 item categories, DDL1 flat
// data blocks); the factory routes DDLm and DDL1 files to their parsers and
// rejects DDL2 with a descriptive error, since no DDL2 parser exists yet.
// Parser implementations live under internal/ddlm and internal/ddl1.
package dict
