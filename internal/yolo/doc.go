// Package yolo reads and writes YOLO detection labels and the data.yaml
// dataset descriptor that accompanies them.
package yolo
