package nsdb

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// QuerierWithTracing wraps a Querier with a span per query.
type QuerierWithTracing struct {
	Querier
	_instance      string
	_spanDecorator func(span trace.Span, params, results map[string]interface{})
}

var _ Querier = QuerierWithTracing{}

// NewQuerierWithTracing returns an instance of the Querier decorated
// with open telemetry spans.
func NewQuerierWithTracing(base Querier, instance string, spanDecorator ...func(span trace.Span, params, results map[string]interface{})) QuerierWithTracing {
	d := QuerierWithTracing{
		Querier:   base,
		_instance: instance,
	}

	if len(spanDecorator) > 0 && spanDecorator[0] != nil {
		d._spanDecorator = spanDecorator[0]
	}

	return d
}

func (_d QuerierWithTracing) finish(_span trace.Span, params, results map[string]interface{}, err error) {
	if _d._spanDecorator != nil {
		_d._spanDecorator(_span, params, results)
	} else if err != nil {
		_span.RecordError(err)
		_span.SetAttributes(
			attribute.String("event", "error"),
			attribute.String("message", err.Error()),
		)
	}
	_span.End()
}

func (_d QuerierWithTracing) GetMaxmindCities(ctx context.Context) (ma1 []MaxmindCity, err error) {
	ctx, _span := otel.Tracer(_d._instance).Start(ctx, "Querier.GetMaxmindCities")
	defer func() {
		_d.finish(_span,
			map[string]interface{}{"ctx": ctx},
			map[string]interface{}{"ma1": len(ma1), "err": err}, err)
	}()
	return _d.Querier.GetMaxmindCities(ctx)
}

func (_d QuerierWithTracing) GetMaxmindIPv4Ranges(ctx context.Context) (ma1 []MaxmindIpv4, err error) {
	ctx, _span := otel.Tracer(_d._instance).Start(ctx, "Querier.GetMaxmindIPv4Ranges")
	defer func() {
		_d.finish(_span,
			map[string]interface{}{"ctx": ctx},
			map[string]interface{}{"ma1": len(ma1), "err": err}, err)
	}()
	return _d.Querier.GetMaxmindIPv4Ranges(ctx)
}

func (_d QuerierWithTracing) GetMaxmindIPv6Ranges(ctx context.Context) (ma1 []MaxmindIpv6, err error) {
	ctx, _span := otel.Tracer(_d._instance).Start(ctx, "Querier.GetMaxmindIPv6Ranges")
	defer func() {
		_d.finish(_span,
			map[string]interface{}{"ctx": ctx},
			map[string]interface{}{"ma1": len(ma1), "err": err}, err)
	}()
	return _d.Querier.GetMaxmindIPv6Ranges(ctx)
}

func (_d QuerierWithTracing) GetSliverToolsByTool(ctx context.Context, toolID string) (sa1 []SliverTool, err error) {
	ctx, _span := otel.Tracer(_d._instance).Start(ctx, "Querier.GetSliverToolsByTool")
	_span.SetAttributes(attribute.String("tool_id", toolID))
	defer func() {
		_d.finish(_span,
			map[string]interface{}{"ctx": ctx, "toolID": toolID},
			map[string]interface{}{"sa1": len(sa1), "err": err}, err)
	}()
	return _d.Querier.GetSliverToolsByTool(ctx, toolID)
}

func (_d QuerierWithTracing) GetToolIDs(ctx context.Context) (sa1 []string, err error) {
	ctx, _span := otel.Tracer(_d._instance).Start(ctx, "Querier.GetToolIDs")
	defer func() {
		_d.finish(_span,
			map[string]interface{}{"ctx": ctx},
			map[string]interface{}{"sa1": sa1, "err": err}, err)
	}()
	return _d.Querier.GetToolIDs(ctx)
}
