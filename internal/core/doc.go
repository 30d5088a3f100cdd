// Package core provides the business logic for freight-load spreadsheet imports.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the web handlers, the loadimport CLI and tests alike.
//
// # Pipeline
//
// An import moves through five stages held in a [Session]:
//
//	upload -> map -> preview -> committing -> done
//
//  1. [ReadSheet] turns a CSV or .xlsx upload into a [RawSheet].
//  2. [Detect] picks a format. Registered formats (see package formats)
//     are tried by priority; anything unrecognized is parsed as generic,
//     as is an auto-detected sheet its format parser cannot use.
//  3. The format parser yields an intermediate [Table] and a default
//     [ColumnMapping]. For generic sheets the mapping comes from
//     [ColumnMapper.Propose].
//  4. The operator edits the mapping; [Normalize] validates required fields
//     and coerces every row into a [NormalizedRecord] or a [RowError].
//  5. [Orchestrator.Commit] supersedes the previous batch of the same source,
//     assigns load numbers and writes rows inside one store transaction.
//
// # Format Registry
//
// Third-party layouts register a [FormatDefinition] at init time:
//
//	core.RegisterFormat(core.FormatDefinition{
//	    Source:    core.SourceTMS,
//	    Template:  core.TemplateAljex,
//	    Signature: []string{"PRO", "SHIP DATE", "PICKUP", "CONSIGNEE"},
//	    Threshold: 3,
//	    Priority:  20,
//	    Parse:     parseAljex,
//	})
//
// # Error Handling
//
// Errors fall into four kinds: [FormatError] blocks mapping, [ValidationError]
// blocks preview, [RowError] rejects one row, and [SystemError] aborts a
// commit. [MapError] turns any of them into a user-facing message with a
// support code:
//
//   - FMT001-FMT003: unreadable or unrecognized sheets
//   - VAL001-VAL002: mapping problems
//   - ROW001-ROW002: rejected rows
//   - SYS001, DB001-DB007: store failures
package core
