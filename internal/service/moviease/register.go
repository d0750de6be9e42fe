package moviease

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/moviease/internal/app"
	"github.com/oggyb/moviease/internal/model"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "moviease.v1.MatchService"

// MatchServer is the API surface served under ServiceName.
type MatchServer interface {
	RecordSwipe(context.Context, *RecordSwipeRequest) (*RecordSwipeResponse, error)
	ListSwipes(context.Context, *ListSwipesRequest) (*ListSwipesResponse, error)
	CreateGroup(context.Context, *CreateGroupRequest) (*model.Group, error)
	GetCoupleMatches(context.Context, *GroupRequest) (*model.PairResult, error)
	GetGroupMatches(context.Context, *GroupRequest) (*model.GroupResult, error)
	GetTasteProfile(context.Context, *TasteProfileRequest) (*model.TasteProfile, error)
	GetRecommendations(context.Context, *RecommendationsRequest) (*model.Recommendations, error)
	SetPreferences(context.Context, *SetPreferencesRequest) (*SetPreferencesResponse, error)
	Invalidate(context.Context, *InvalidateRequest) (*InvalidateResponse, error)
}

var _ MatchServer = (*Service)(nil)

// ServiceDesc describes MatchService for grpc.Server. Every method takes
// and returns a google.protobuf.Struct.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RecordSwipe", MatchServer.RecordSwipe),
		unary("ListSwipes", MatchServer.ListSwipes),
		unary("CreateGroup", MatchServer.CreateGroup),
		unary("GetCoupleMatches", MatchServer.GetCoupleMatches),
		unary("GetGroupMatches", MatchServer.GetGroupMatches),
		unary("GetTasteProfile", MatchServer.GetTasteProfile),
		unary("GetRecommendations", MatchServer.GetRecommendations),
		unary("SetPreferences", MatchServer.SetPreferences),
		unary("Invalidate", MatchServer.Invalidate),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "moviease/v1/match.proto",
}

// Registrar ties the MatchService into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the MatchService
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the MatchService implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, NewMatchService(r.appCtx))
}
