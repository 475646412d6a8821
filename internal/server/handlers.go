package server

import (
	"encoding/json"
	"fmt"

	"github.com/terrawatch/scenediff/internal/align"
	"github.com/terrawatch/scenediff/internal/change"
	"github.com/terrawatch/scenediff/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "scene_align").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls into the imaging, align or change packages
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Region Operations
	case "image_crop":
		return s.handleImageCrop(args)

	// Scene Operations
	case "scene_align":
		return s.handleSceneAlign(args)
	case "scene_detect_changes":
		return s.handleSceneDetectChanges(args)
	case "scene_compare":
		return s.handleSceneCompare(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Region Operation Handlers ===

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

// === Scene Operation Handlers ===

type sceneAlignArgs struct {
	FixedPath  string `json:"fixed_path"`
	MovingPath string `json:"moving_path"`

	// Strategy is "auto" (default), "dog", "harris", "fast" or
	// "intensity".
	Strategy string `json:"strategy"`

	// IncludeAligned adds the resampled moving image to the result as
	// base64 PNG.
	IncludeAligned bool `json:"include_aligned"`
}

// alignResult is the JSON shape of a scene_align response.
type alignResult struct {
	*align.Result

	// Transform is the 3x3 row-major matrix mapping moving pixel
	// coordinates onto the fixed image.
	Transform [9]float64 `json:"transform"`

	AlignedPNG string `json:"aligned_png,omitempty"`
}

func (s *Server) handleSceneAlign(args json.RawMessage) (interface{}, error) {
	var a sceneAlignArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Strategy == "" {
		a.Strategy = align.StrategyAuto
	}

	fixed, err := s.cache.LoadRaster(a.FixedPath)
	if err != nil {
		return nil, err
	}
	moving, err := s.cache.LoadRaster(a.MovingPath)
	if err != nil {
		return nil, err
	}

	res, err := s.pipeline.Align(fixed, moving, a.Strategy)
	if err != nil {
		return nil, err
	}

	out := &alignResult{
		Result:    res,
		Transform: res.Transform.Matrix(),
	}
	if a.IncludeAligned {
		// The artifact is resampled from the decoded source image, not
		// from the pipeline's float working planes.
		movingImg, err := s.cache.Load(a.MovingPath)
		if err != nil {
			return nil, err
		}
		warped := imaging.WarpImage(movingImg, res.Transform.Aff3(), fixed.Width, fixed.Height)
		out.AlignedPNG, err = imaging.EncodePNG(warped)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type sceneDetectChangesArgs struct {
	FixedPath  string `json:"fixed_path"`
	MovingPath string `json:"moving_path"`

	// ThresholdMethod is "otsu" (default), "percentile" or "kmeans".
	ThresholdMethod string `json:"threshold_method"`

	// Percentile applies when threshold_method is "percentile".
	// Default 0.90.
	Percentile float64 `json:"percentile"`

	// MinArea drops changed components smaller than this many pixels.
	MinArea *int `json:"min_area"`

	// IncludeMask and IncludeMap add the binary mask and the fused
	// change strength map as base64 PNG.
	IncludeMask bool `json:"include_mask"`
	IncludeMap  bool `json:"include_map"`
}

// signalStatus reports per-signal availability in a detection result.
type signalStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// detectResult is the JSON shape of a scene_detect_changes response.
type detectResult struct {
	TotalPixels   int            `json:"total_pixels"`
	ChangedPixels int            `json:"changed_pixels"`
	ChangePercent float64        `json:"change_percent"`
	Threshold     float64        `json:"threshold"`
	Signals       []signalStatus `json:"signals"`
	FusedSignals  []string       `json:"fused_signals"`
	MaskPNG       string         `json:"mask_png,omitempty"`
	MapPNG        string         `json:"map_png,omitempty"`
}

func (s *Server) handleSceneDetectChanges(args json.RawMessage) (interface{}, error) {
	var a sceneDetectChangesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	fixed, err := s.cache.LoadRaster(a.FixedPath)
	if err != nil {
		return nil, err
	}
	moving, err := s.cache.LoadRaster(a.MovingPath)
	if err != nil {
		return nil, err
	}

	cfg := s.detectConfig(a)
	res, err := change.Detect(fixed, moving, cfg)
	if err != nil {
		return nil, err
	}
	return s.detectResponse(res, a.IncludeMask, a.IncludeMap)
}

// detectConfig derives a detection config from tool arguments, starting
// from the server defaults.
func (s *Server) detectConfig(a sceneDetectChangesArgs) change.Config {
	cfg := s.change
	if a.ThresholdMethod != "" {
		cfg.ThresholdMethod = change.ThresholdMethod(a.ThresholdMethod)
	}
	if a.Percentile != 0 {
		cfg.Percentile = a.Percentile
	}
	if a.MinArea != nil {
		cfg.Cleanup.MinArea = *a.MinArea
	}
	return cfg
}

func (s *Server) detectResponse(res *change.DetectionResult, includeMask, includeMap bool) (*detectResult, error) {
	out := &detectResult{
		TotalPixels:   res.TotalPixels,
		ChangedPixels: res.ChangedPixels,
		ChangePercent: res.ChangePercent,
		Threshold:     res.Threshold,
		FusedSignals:  res.FusedSignals,
	}
	for _, sig := range res.Signals {
		st := signalStatus{Name: sig.Name, Available: sig.Available()}
		if sig.Err != nil {
			st.Error = sig.Err.Error()
		}
		out.Signals = append(out.Signals, st)
	}

	var err error
	if includeMask {
		out.MaskPNG, err = imaging.EncodePNG(imaging.MaskToImage(res.Mask, res.Map.Width, res.Map.Height))
		if err != nil {
			return nil, err
		}
	}
	if includeMap {
		out.MapPNG, err = imaging.EncodePNG(imaging.MapToImage(res.Map.Values, res.Map.Width, res.Map.Height))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type sceneCompareArgs struct {
	sceneDetectChangesArgs

	Strategy string `json:"strategy"`

	// RequireAlignment fails the call when no alignment strategy
	// converges. When false the detection runs on the unaligned pair
	// and the result marks aligned=false.
	RequireAlignment bool `json:"require_alignment"`
}

// compareResult is the JSON shape of a scene_compare response.
type compareResult struct {
	Alignment *alignResult  `json:"alignment"`
	Detection *detectResult `json:"detection"`
}

// handleSceneCompare runs the full pair comparison: register the moving
// image onto the fixed one, then detect changes between the fixed
// raster and the resampled moving raster.
func (s *Server) handleSceneCompare(args json.RawMessage) (interface{}, error) {
	var a sceneCompareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Strategy == "" {
		a.Strategy = align.StrategyAuto
	}

	fixed, err := s.cache.LoadRaster(a.FixedPath)
	if err != nil {
		return nil, err
	}
	moving, err := s.cache.LoadRaster(a.MovingPath)
	if err != nil {
		return nil, err
	}

	alignRes, err := s.pipeline.Align(fixed, moving, a.Strategy)
	if err != nil {
		return nil, err
	}
	if !alignRes.Success && a.RequireAlignment {
		return nil, fmt.Errorf("alignment failed for %s onto %s", a.MovingPath, a.FixedPath)
	}

	detRes, err := change.Detect(fixed, alignRes.Aligned, s.detectConfig(a.sceneDetectChangesArgs))
	if err != nil {
		return nil, err
	}
	detection, err := s.detectResponse(detRes, a.IncludeMask, a.IncludeMap)
	if err != nil {
		return nil, err
	}

	return &compareResult{
		Alignment: &alignResult{
			Result:    alignRes,
			Transform: alignRes.Transform.Matrix(),
		},
		Detection: detection,
	}, nil
}
