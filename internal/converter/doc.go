// Package converter turns a directory tree of text files into tagged JSON
// lines files.
//
// # Basic Usage
//
//	conv, err := converter.New(converter.DefaultConfig(), converter.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	stats, err := conv.ConvertTree(ctx, "corpus", "out")
//	fmt.Printf("Converted %d files in %v\n", stats.FilesConverted, stats.Duration)
//
// # Pipeline
//
// For every run the converter:
//
//  1. Loads the tag tree from the source root (tags.json, tags.yaml or tags.yml)
//  2. Discovers source files recursively, skipping hidden entries
//  3. Decodes each file and splits it into segments
//  4. Resolves tags from the file's directory path
//  5. Writes one {"tags":[...],"text":"..."} line per segment
//
// # Output Naming
//
// Output files live flat in the destination directory. A file at
// data1/sub/text1.txt becomes data1␟sub␟text1.json, where ␟ is the
// configured delimiter. Tags are resolved from the same components with
// the output extension removed.
//
// Files are processed sequentially in lexical order, so a run is
// deterministic and converting the same tree twice produces identical
// bytes. When a ledger is attached, every run and file is recorded in it.
package converter
