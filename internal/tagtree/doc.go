// Package tagtree loads hierarchical tag annotations and resolves the
// tags inherited by a file from its position in the source tree.
//
// A tag file mirrors the source directory layout. Every object key names
// a directory or file stem, and the reserved "tags" key lists the tags of
// that level:
//
//	{
//	  "data3": {
//	    "tags": ["a"],
//	    "sub_data1": {
//	      "tags": ["b"],
//	      "text5": {"tags": ["c"]}
//	    }
//	  }
//	}
//
// Resolving data3/sub_data1/text5 yields [a b c]. Resolution stops at the
// first path component the tree does not contain, so data3/unknown/x
// yields [a]. The tree need not be complete.
//
// JSON (tags.json) and YAML (tags.yaml, tags.yml) share the same shape.
// A missing tag file is an empty tree; a tag file with the wrong shape is
// an ErrInvalidTagTree error naming the offending key.
package tagtree
