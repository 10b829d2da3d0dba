// Package platdb stores and reads typed platform vertices.
//
// A Connection owns one graph client for the life of a process and hands out
// a Store. Every Store method takes an explicit context and works directly
// against that client; there is no package-level session.
//
//	conn, err := platdb.Open(ctx, cfg, platdb.WithConnectionLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer conn.Close(ctx)
//
//	store := conn.Store()
//	app, err := store.FindOneByAttributes(ctx, schema.KindApplication, map[string]any{"name": "checkout"})
//
// Lookups by attributes report a missing vertex as ErrNotFound, while
// DeleteByAttributes and UpdateByAttributes turn it into false and nil.
// CreateOrUpdate resolves Resource and TrafficController vertices by address
// or by overlapping dns_names. ExportGraph flattens every relationship in the
// store into an Export that can be written as JSON or YAML.
package platdb
