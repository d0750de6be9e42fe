package moviease

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/moviease/internal/model"
)

// Client calls MatchService over a gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

var _ MatchServer = (*Client)(nil)

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req and decodes the reply into resp.
func (c *Client) Call(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return err
	}
	return fromStruct(out, resp)
}

func call[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	resp := new(Resp)
	if err := c.Call(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) RecordSwipe(ctx context.Context, req *RecordSwipeRequest) (*RecordSwipeResponse, error) {
	return call[RecordSwipeResponse](ctx, c, "RecordSwipe", req)
}

func (c *Client) ListSwipes(ctx context.Context, req *ListSwipesRequest) (*ListSwipesResponse, error) {
	return call[ListSwipesResponse](ctx, c, "ListSwipes", req)
}

func (c *Client) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*model.Group, error) {
	return call[model.Group](ctx, c, "CreateGroup", req)
}

func (c *Client) GetCoupleMatches(ctx context.Context, req *GroupRequest) (*model.PairResult, error) {
	return call[model.PairResult](ctx, c, "GetCoupleMatches", req)
}

func (c *Client) GetGroupMatches(ctx context.Context, req *GroupRequest) (*model.GroupResult, error) {
	return call[model.GroupResult](ctx, c, "GetGroupMatches", req)
}

func (c *Client) GetTasteProfile(ctx context.Context, req *TasteProfileRequest) (*model.TasteProfile, error) {
	return call[model.TasteProfile](ctx, c, "GetTasteProfile", req)
}

func (c *Client) GetRecommendations(ctx context.Context, req *RecommendationsRequest) (*model.Recommendations, error) {
	return call[model.Recommendations](ctx, c, "GetRecommendations", req)
}

func (c *Client) SetPreferences(ctx context.Context, req *SetPreferencesRequest) (*SetPreferencesResponse, error) {
	return call[SetPreferencesResponse](ctx, c, "SetPreferences", req)
}

func (c *Client) Invalidate(ctx context.Context, req *InvalidateRequest) (*InvalidateResponse, error) {
	return call[InvalidateResponse](ctx, c, "Invalidate", req)
}
