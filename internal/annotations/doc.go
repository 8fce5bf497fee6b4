// Package annotations models the COCO Human Parts annotation schemas.
//
// Source files carry one PersonDetection per person with a flat hierarchy
// vector; it is decoded at load time into six explicit part slots so no caller
// does index arithmetic. Expanded files carry one Annotation per entity. The
// category tables for both label variants live in a single versioned catalog,
// and category fusion is expressed as a declared Mapping.
package annotations
