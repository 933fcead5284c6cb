// Package graph builds the connectivity graph of a document: an undirected
// graph whose nodes are visible solids and whose edges are contacts, pruned
// to the connected components and to the solids lying close to them.
//
// The builder owns no geometry. Callers supply bounding boxes for the broad
// phase and a contact function for the exact test.
package graph
