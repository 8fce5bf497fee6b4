// Package convert turns COCO Human Parts source files into the expanded
// COCO detection form and into YOLO label directories, and converts YOLO
// datasets back into the COCO layout used by Roboflow-style trainers.
//
// All converters are single-pass batch operations. Schema problems reject the
// whole input file; a missing source image during YOLO conversion is reported
// and that image is skipped.
package convert
