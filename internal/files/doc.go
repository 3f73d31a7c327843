// Package files provides the blob sources survey workbooks are read from.
//
// Two implementations exist:
//
// LocalSource lists the .xlsx files of a directory and reads them from disk.
// Uploads are written into the same directory.
//
// S3Source lists the objects under a bucket prefix with ListObjectsV2 and
// fetches them with GetObject. Uploads are stored with PutObject.
//
// Both return names in lexical order so a merge over them is deterministic:
//
//	src := files.NewLocalSource("data", logger)
//	names, err := src.List(ctx)
//	data, err := src.Fetch(ctx, names[0])
package files
