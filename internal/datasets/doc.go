// Package datasets holds the end-to-end dataset recipes: downloading the
// COCO-format, YOLO-format, and MS-COCO distributions into a local layout,
// and fusing left/right part categories of an already prepared dataset.
package datasets
