// Package schema declares the closed set of vertex kinds that make up the
// platform topology graph.
//
// Every kind has a typed struct (Application, Compute, Resource, ...) and an
// entry in a static table listing its attributes and relationship fields.
// Code that needs to walk a vertex's fields consults the table through
// Lookup instead of reflecting over the struct.
//
// Raw store records become typed vertices through FromNode, which picks the
// constructor from the node's label; a label outside the table is reported
// as ErrUnknownVertexKind.
package schema
