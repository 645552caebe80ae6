package parser

import (
	"os"

	"github.com/conneroisu/templink/internal/errors"
	"github.com/conneroisu/templink/internal/logging"
	"github.com/conneroisu/templink/internal/types"
)

// TemplDocument is an open templ-style source document backed by a file,
// implementing types.Document with a TemplParser collaborator.
type TemplDocument struct {
	path   string
	parser *TemplParser
}

// OpenDocument opens the file at path as a tracked document. The file must
// exist; the engine only indexes documents the host actually has open.
func OpenDocument(path string, logger logging.Logger, opts ...Option) (*TemplDocument, error) {
	norm := types.NormalizePath(path)

	info, err := os.Stat(norm)
	if err != nil {
		return nil, errors.NewIOError("open_document", "cannot open document", err).WithPath(norm)
	}
	if info.IsDir() {
		return nil, errors.NewInvalidArgumentError("OpenDocument", "path is a directory").WithPath(norm)
	}

	return &TemplDocument{
		path:   norm,
		parser: NewTemplParser(norm, logger, opts...),
	}, nil
}

// Path implements types.Document.
func (d *TemplDocument) Path() string { return d.path }

// Parser implements types.Document.
func (d *TemplDocument) Parser() types.Parser { return d.parser }
