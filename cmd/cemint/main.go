// Command cemint runs the plant data pipeline, trains models and serves the
// prediction API.
package main

import (
	"os"

	_ "github.com/cemint/cemint-insights/storage/gcs"
	_ "github.com/cemint/cemint-insights/storage/local"
	_ "github.com/cemint/cemint-insights/storage/s3"
)

var version = "dev"

func main() {
	os.Exit(execute(os.Args[1:]))
}
