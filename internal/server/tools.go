package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the shared schema fragment for image path arguments.
func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// pairProperties returns the schema fragments shared by every tool
// operating on a fixed/moving image pair.
func pairProperties() map[string]interface{} {
	return map[string]interface{}{
		"fixed_path":  pathProperty("Absolute path to the reference image"),
		"moving_path": pathProperty("Absolute path to the image to register against the reference"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, band count and format. Caches the decoded image for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// Region Operations
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to zoom into areas that need detailed examination.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Scene Operations
		{
			Name:        "scene_align",
			Description: "Estimate the geometric transform registering a moving image onto a fixed reference image. Tries keypoint strategies in order and falls back to intensity correlation; reports the winning method, the transform matrix and match statistics. An unalignable pair returns success=false rather than an error.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(pairProperties(), map[string]interface{}{
					"strategy": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"auto", "dog", "harris", "fast", "intensity"},
						"description": "Alignment strategy. 'auto' (default) walks the full fallback chain; a named strategy runs only that method",
						"default":     "auto",
					},
					"include_aligned": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the resampled moving image as base64 PNG",
						"default":     false,
					},
				}),
				"required": []string{"fixed_path", "moving_path"},
			},
		},
		{
			Name:        "scene_detect_changes",
			Description: "Detect changed regions between two images of the same scene that are already registered to the same pixel grid. Fuses pixel, structural, edge, texture and spectral evidence, binarizes with an automatic threshold and cleans the mask. Returns change statistics and optional mask/map images.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(pairProperties(), map[string]interface{}{
					"threshold_method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"otsu", "percentile", "kmeans"},
						"description": "Threshold selection policy. Default 'otsu'",
						"default":     "otsu",
					},
					"percentile": map[string]interface{}{
						"type":        "number",
						"description": "Quantile for the 'percentile' policy, in (0,1). Default 0.9",
						"default":     0.9,
					},
					"min_area": map[string]interface{}{
						"type":        "integer",
						"description": "Drop changed components smaller than this many pixels. Default 9; 0 disables",
					},
					"include_mask": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the binary change mask as base64 PNG",
						"default":     false,
					},
					"include_map": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the fused change strength map as base64 PNG",
						"default":     false,
					},
				}),
				"required": []string{"fixed_path", "moving_path"},
			},
		},
		{
			Name:        "scene_compare",
			Description: "Full two-image comparison: register the moving image onto the fixed one, then detect changes between the fixed image and the resampled result. Combines scene_align and scene_detect_changes in one call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(pairProperties(), map[string]interface{}{
					"strategy": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"auto", "dog", "harris", "fast", "intensity"},
						"description": "Alignment strategy. Default 'auto'",
						"default":     "auto",
					},
					"require_alignment": map[string]interface{}{
						"type":        "boolean",
						"description": "Fail instead of comparing the unaligned pair when no strategy converges",
						"default":     false,
					},
					"threshold_method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"otsu", "percentile", "kmeans"},
						"description": "Threshold selection policy. Default 'otsu'",
						"default":     "otsu",
					},
					"percentile": map[string]interface{}{
						"type":        "number",
						"description": "Quantile for the 'percentile' policy, in (0,1). Default 0.9",
						"default":     0.9,
					},
					"min_area": map[string]interface{}{
						"type":        "integer",
						"description": "Drop changed components smaller than this many pixels. Default 9; 0 disables",
					},
					"include_mask": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the binary change mask as base64 PNG",
						"default":     false,
					},
					"include_map": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the fused change strength map as base64 PNG",
						"default":     false,
					},
				}),
				"required": []string{"fixed_path", "moving_path"},
			},
		},
	}
}

func mergeProperties(base, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
