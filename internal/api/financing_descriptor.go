package api

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// financingProtoFile is the descriptor path of the financing service.
const financingProtoFile = "storefront/financing/v1/financing.proto"

// The service has no generated code, so its file descriptor is registered here.
// Server reflection (grpcurl describe) resolves the service through it.
func init() {
	fd, err := protodesc.NewFile(financingFileDescriptor(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("api: invalid financing descriptor: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("api: register financing descriptor: %v", err))
	}
}

func financingFileDescriptor() *descriptorpb.FileDescriptorProto {
	structType := "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())
	method := func(name string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(structType),
			OutputType: proto.String(structType),
		}
	}

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(financingProtoFile),
		Package:    proto.String("storefront.financing.v1"),
		Dependency: []string{structpb.File_google_protobuf_struct_proto.Path()},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("FinancingService"),
			Method: []*descriptorpb.MethodDescriptorProto{method("ResolvePlans"), method("QuoteProduct")},
		}},
	}
}
