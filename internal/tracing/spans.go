package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys for repository operations.
const (
	AttrOperationID = "darkpan.operation.id"
	AttrPath        = "darkpan.distribution.path"
	AttrSource      = "darkpan.distribution.source"
	AttrAuthor      = "darkpan.author"
	AttrPackages    = "darkpan.packages.count"
	AttrURL         = "darkpan.url"
	AttrPackage     = "darkpan.package"
	AttrErrorType   = "error.type"
)

// Span names.
const (
	SpanAdd    = "repo.add"
	SpanImport = "repo.import"
	SpanRemove = "repo.remove"
	SpanLocate = "repo.locate"
	SpanVerify = "repo.verify"
)

// Events recorded on operation spans.
const (
	EventExtracted       = "archive.extracted"
	EventFetched         = "archive.fetched"
	EventMetadataWritten = "metadata.written"
	EventMetadataDeleted = "metadata.deleted"
	EventStoreWritten    = "store.written"
	EventNoPackages      = "archive.no_packages"
)

// StartOperation starts a span for a repository operation tagged with its id.
func StartOperation(ctx context.Context, tracer trace.Tracer, name, opID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(AttrOperationID, opID))
	ctx = ContextWithOperationID(ctx, opID)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndOperation records err (if any) on span and ends it.
func EndOperation(span trace.Span, err error, errType string) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errType != "" {
			span.SetAttributes(attribute.String(AttrErrorType, errType))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
