package conversion

import (
	"net/http"
)

// V1ConversionResponse is a supported conversion
type V1ConversionResponse struct {
	ID          string   `json:"id"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	FromExt     []string `json:"from_ext"`
	ToExt       string   `json:"to_ext"`
}

// V1ListConversionsResponse is the response to list conversions
type V1ListConversionsResponse struct {
	Conversions []V1ConversionResponse `json:"conversions"`
}

// ListConversionsV1 returns the conversion catalog
func (h *HandlerV1) ListConversionsV1(w http.ResponseWriter, r *http.Request) {
	specs := h.conversionService.ListConversions()

	resp := V1ListConversionsResponse{Conversions: make([]V1ConversionResponse, 0, len(specs))}
	for _, spec := range specs {
		resp.Conversions = append(resp.Conversions, V1ConversionResponse{
			ID:          spec.ID,
			From:        spec.From,
			To:          spec.To,
			Icon:        spec.Icon,
			Description: spec.Description,
			FromExt:     spec.SourceExtensions,
			ToExt:       spec.TargetExtension,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}
