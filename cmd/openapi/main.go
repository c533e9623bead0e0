// openapi serves and validates the life manager OpenAPI document.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/OscarCarPu/life-manager/internal/docs"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		os.Exit(1)
	}

	spec, err := loadSpec()
	if err != nil {
		fmt.Printf("Error loading spec: %v\n", err)
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "serve":
		serveDocumentation(spec)
	case "validate":
		if err := validateSpec(os.Stdout, spec); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	case "routes":
		for _, route := range spec.Routes() {
			fmt.Println(route)
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage(os.Stdout)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: openapi <command>")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    - Serve OpenAPI documentation")
	fmt.Fprintln(w, "  validate - Validate OpenAPI specification")
	fmt.Fprintln(w, "  routes   - List documented operations")
}

// loadSpec reads OPENAPI_SPEC_PATH when set, the embedded document otherwise
func loadSpec() (*docs.Spec, error) {
	if path := os.Getenv("OPENAPI_SPEC_PATH"); path != "" {
		return docs.LoadFile(path)
	}
	return docs.LoadEmbedded()
}

func serveDocumentation(spec *docs.Spec) {
	port := os.Getenv("OPENAPI_PORT")
	if port == "" {
		port = "8081"
	}

	fmt.Printf("Serving OpenAPI documentation at http://localhost:%s/docs\n", port)
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      docs.NewSwaggerUIHandler(spec).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func validateSpec(w io.Writer, spec *docs.Spec) error {
	if err := spec.Validate(context.Background()); err != nil {
		return err
	}

	stats := spec.Stats()
	fmt.Fprintln(w, "✓ OpenAPI specification is valid")
	fmt.Fprintf(w, "\nAPI Statistics:\n")
	fmt.Fprintf(w, "- Paths: %d\n", stats.Paths)
	fmt.Fprintf(w, "- Schemas: %d\n", stats.Schemas)
	fmt.Fprintf(w, "- Operations: %d\n", stats.Operations)
	return nil
}
