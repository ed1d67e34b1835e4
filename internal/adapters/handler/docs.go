package handler

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

const docName = "storefront"

//go:embed openapi.yaml
var openAPISpec []byte

type specDoc struct{}

func (specDoc) ReadDoc() string {
	return string(openAPISpec)
}

func init() {
	swag.Register(docName, specDoc{})
}

// LoadOpenAPI parses and validates the embedded API contract.
func LoadOpenAPI() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, err
	}
	return doc, nil
}

func (h *StorefrontHandler) HandleDocs(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docName)
	if err != nil {
		respondWithError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
