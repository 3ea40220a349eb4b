package grpc

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/fighter-matchup/internal/engine"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/pubsub"
)

// Server implements MatchupService on top of the engine
type Server struct {
	engine *engine.Engine
	pubsub *pubsub.PubSub
}

var _ MatchupServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server
func NewServer(eng *engine.Engine, ps *pubsub.PubSub) *Server {
	return &Server{
		engine: eng,
		pubsub: ps,
	}
}

// Recommend resolves one matchup request
func (s *Server) Recommend(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.MatchupRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := engine.ValidateRequest(&req); err != nil {
		return nil, invalid(err)
	}

	logger.Debug("gRPC: Resolving matchup", "action", req.Action.String(), "sets", len(req.OwnedSets))
	res := s.engine.Resolve(req)
	if !res.Empty() {
		s.publish(pubsub.EventMatchupResolved, map[string]any{"id": res.ID, "action": req.Action.String()})
	}
	return encode(res)
}

// Promote runs the promote transition on a client board. A rejected
// promote returns the unchanged board with the error message.
func (s *Server) Promote(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req engine.PromoteRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	b, err := s.engine.PromoteBoard(req)
	out := map[string]any{"board": b}
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		return nil, invalid(err)
	case err != nil:
		out["error"] = err.Error()
	default:
		s.publish(pubsub.EventMatchupPromoted, map[string]any{"player": string(req.Player), "fighter_id": req.FighterID})
	}
	return encode(out)
}

// Catalog returns the catalog projection
func (s *Server) Catalog(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encode(s.engine.Catalog().Export())
}

// WinRates returns the sanitized win matrix
func (s *Server) WinRates(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encode(s.engine.Catalog().WinRates())
}

// Opponents ranks opponents for one fighter
func (s *Server) Opponents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.OpponentsRequest
	if err := decodeValid(in, &req); err != nil {
		return nil, err
	}
	recs, err := s.engine.Opponents(req)
	if err != nil {
		return featureError(err)
	}
	return encode(map[string]any{"opponents": recs})
}

// Batch draws a batch of pairings
func (s *Server) Batch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.PairingRequest
	if err := decodeValid(in, &req); err != nil {
		return nil, err
	}
	pairs, err := s.engine.Batch(req)
	if err != nil {
		return featureError(err)
	}
	return encode(map[string]any{"pairs": pairs})
}

// Pools builds fair player pools
func (s *Server) Pools(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.PairingRequest
	if err := decodeValid(in, &req); err != nil {
		return nil, err
	}
	pools, err := s.engine.FairPools(req)
	if err != nil {
		return featureError(err)
	}
	return encode(map[string]any{"pools": pools})
}

// StreamEvents streams activity events to clients
func (s *Server) StreamEvents(_ *emptypb.Empty, stream grpc.ServerStream) error {
	logger.Debug("gRPC: New client connected to event stream")
	eventChan := s.pubsub.Subscribe()
	defer s.pubsub.Unsubscribe(eventChan)

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			msg, err := encode(event)
			if err != nil {
				logger.Error("gRPC: Failed to encode event", "error", err, "type", event.Type)
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				logger.Error("gRPC: Failed to send event to stream", "error", err)
				return err
			}
		case <-stream.Context().Done():
			logger.Debug("gRPC: Client disconnected from event stream")
			return nil
		}
	}
}

func (s *Server) publish(typ string, payload map[string]any) {
	if s.pubsub != nil {
		s.pubsub.Publish(pubsub.NewEvent(typ, payload))
	}
}

// featureError reports engine conditions in the response body, matching HTTP
func featureError(err error) (*structpb.Struct, error) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		return nil, invalid(err)
	}
	return encode(map[string]any{"error": err.Error()})
}

func invalid(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

// encode converts a JSON-shaped value into a Struct
func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// decode converts a Struct into the JSON-tagged request type
func decode(in *structpb.Struct, v any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	return nil
}

func decodeValid(in *structpb.Struct, v any) error {
	if err := decode(in, v); err != nil {
		return err
	}
	if err := engine.Validate(v); err != nil {
		return invalid(err)
	}
	return nil
}

// Encode converts a request value into a Struct for clients
func Encode(v any) (*structpb.Struct, error) { return encode(v) }

// Decode converts a response Struct into v
func Decode(in *structpb.Struct, v any) error { return decode(in, v) }
