// Package types provides shared type definitions for txt2jsonl.
//
// # Records
//
// Record is the unit of output. Each converted text file becomes a JSON
// lines file holding one record per text segment:
//
//	{"tags":["novel","soseki"],"text":"吾輩は猫である。"}
//	{"tags":["novel","soseki"],"text":"名前はまだ無い。"}
//
// Build records from a tag set and the segmenter output, then write them:
//
//	records := types.NewRecords(tags, segments)
//	if err := types.WriteRecords(f, records); err != nil {
//	    return err
//	}
//
// Non-ASCII text is written as-is (no \u escapes) and lines carry no
// trailing comma, which is the layout dataset loaders expect.
//
// # Validation
//
// Records are validated before they are written:
//
//	if err := record.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
