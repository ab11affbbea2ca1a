// Package mirror copies bug attachments into an S3 compatible bucket, one
// object per attachment under bugs/<bug id>/<attachment id>/<file name>.
package mirror
