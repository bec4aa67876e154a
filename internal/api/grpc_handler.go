package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"storefront-service/internal/financing"
	"storefront-service/internal/store"
)

// FinancingServiceName is the fully qualified gRPC service name.
const FinancingServiceName = "storefront.financing.v1.FinancingService"

// FinancingServer is the server API for the financing service.
// Requests and responses are google.protobuf.Struct documents.
type FinancingServer interface {
	ResolvePlans(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QuoteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// FinancingServiceDesc describes the financing service for grpc.Server.
var FinancingServiceDesc = grpc.ServiceDesc{
	ServiceName: FinancingServiceName,
	HandlerType: (*FinancingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ResolvePlans", Handler: resolvePlansHandler},
		{MethodName: "QuoteProduct", Handler: quoteProductHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: financingProtoFile,
}

// RegisterFinancingServer registers srv on s.
func RegisterFinancingServer(s grpc.ServiceRegistrar, srv FinancingServer) {
	s.RegisterService(&FinancingServiceDesc, srv)
}

type unaryHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

func unaryStructHandler(method string, call func(FinancingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) unaryHandler {
	fullMethod := "/" + FinancingServiceName + "/" + method
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FinancingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(FinancingServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	resolvePlansHandler = unaryStructHandler("ResolvePlans", FinancingServer.ResolvePlans)
	quoteProductHandler = unaryStructHandler("QuoteProduct", FinancingServer.QuoteProduct)
)

// GRPCHandler implements FinancingServer.
type GRPCHandler struct {
	products store.ProductFinder
	resolver *financing.Resolver
	quoter   *financing.Quoter
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(products store.ProductFinder, resolver *financing.Resolver, quoter *financing.Quoter) *GRPCHandler {
	return &GRPCHandler{products: products, resolver: resolver, quoter: quoter}
}

// --- Helper: Error Mapping ---
func mapStoreErrorToGrpcStatus(err error, resourceName string, resourceID interface{}) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrProductNotFound), errors.Is(err, store.ErrPlanNotFound):
		return status.Errorf(codes.NotFound, "%s with ID %v not found", resourceName, resourceID)
	case errors.Is(err, financing.ErrPlanNotApplicable):
		return status.Errorf(codes.FailedPrecondition, "%s ID %v: %v", resourceName, resourceID, err)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		zap.L().Error("Store operation failed",
			zap.String("resource", resourceName), zap.Any("id", resourceID), zap.Error(err))
		return status.Errorf(codes.Internal, "Failed to process request for %s ID %v", resourceName, resourceID)
	}
}

// productIDFromRequest reads product_id, which clients may send as a number or a string.
// Only the plain decimal form is accepted: "010", "0x10", "7.0" and 7.9 are rejected.
func productIDFromRequest(req *structpb.Struct) (int64, error) {
	field, ok := req.GetFields()["product_id"]
	if !ok {
		return 0, status.Error(codes.InvalidArgument, "product_id is required")
	}
	raw := field.AsInterface()
	invalid := status.Errorf(codes.InvalidArgument, "product_id must be a positive integer, got %v", raw)

	id, err := cast.ToInt64E(raw)
	if err != nil || id <= 0 {
		return 0, invalid
	}
	switch v := raw.(type) {
	case string:
		if strconv.FormatInt(id, 10) != strings.TrimSpace(v) {
			return 0, invalid
		}
	case float64:
		if v != math.Trunc(v) || v >= math.MaxInt64 {
			return 0, invalid
		}
	default:
		return 0, invalid
	}
	return id, nil
}

// toStruct converts a JSON-serialisable value into a protobuf Struct.
// Decimal amounts serialise as strings, so money keeps its exact value on the wire.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return structpb.NewStruct(m)
}

func (s *GRPCHandler) ResolvePlans(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	productID, err := productIDFromRequest(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, mapStoreErrorToGrpcStatus(err, "Product", productID)
	}

	res := s.resolver.Resolve(ctx, productID)
	out, err := toStruct(struct {
		ProductID int64 `json:"product_id"`
		financing.Resolution
	}{productID, res})
	if err != nil {
		zap.L().Error("Failed to build ResolvePlans response", zap.Int64("product_id", productID), zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to build response")
	}
	return out, nil
}

func (s *GRPCHandler) QuoteProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	productID, err := productIDFromRequest(req)
	if err != nil {
		return nil, err
	}

	quote, err := s.quoter.QuoteProduct(ctx, productID)
	if err != nil {
		return nil, mapStoreErrorToGrpcStatus(err, "Product", productID)
	}

	out, err := toStruct(quote)
	if err != nil {
		zap.L().Error("Failed to build QuoteProduct response", zap.Int64("product_id", productID), zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to build response")
	}
	return out, nil
}
