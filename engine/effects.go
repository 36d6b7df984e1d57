package engine

import (
	"sort"

	"github.com/appforge/canvasflow/model"
)

// EffectKind tags one planned side effect.
type EffectKind int

const (
	EffectNavigate EffectKind = iota
	EffectOpenURL
	EffectGoBack
	EffectToast
	EffectModal
	EffectUploadFailure
	EffectDownload
	EffectDownloadFailed
	EffectSummary
	EffectSummaryFailed
	EffectConfirmation
)

// Effect is one planned side effect. Only the fields of its kind are set.
type Effect struct {
	Kind     EffectKind
	Page     string
	URL      string
	NewTab   bool
	Toast    *model.Toast
	Modal    map[string]any
	Download *model.Download
	Summary  *model.Summary
	Data     map[string]any
	Message  string
}

// Plan is the folded interpretation of a result list. StopAfter is the
// index of the result that halted processing, or -1 when the whole list
// was consumed. Results past StopAfter contribute nothing.
type Plan struct {
	Effects   []Effect
	StopAfter int
}

// PlanEffects folds the executor's ordered results into an effect plan.
// A result may satisfy several handlers; the handlers are independent,
// not branches. Redirect and goBack halt the fold after their result.
func PlanEffects(results []model.StepResult) Plan {
	plan := Plan{StopAfter: -1}
	for i, step := range results {
		res := step.Result
		if res == nil {
			continue
		}
		stop := false

		if res.Type == model.ResultRedirect && res.Redirect != nil {
			switch res.Redirect.Type {
			case "page":
				plan.Effects = append(plan.Effects, Effect{Kind: EffectNavigate, Page: res.Redirect.Target})
			case "url":
				plan.Effects = append(plan.Effects, Effect{
					Kind:   EffectOpenURL,
					URL:    res.Redirect.Target,
					NewTab: res.Redirect.NewTab,
				})
			}
			stop = true
		}

		if modal, ok := modalPayload(res); ok {
			plan.Effects = append(plan.Effects, Effect{Kind: EffectModal, Modal: modal})
		}

		if res.Type == model.ResultGoBack {
			plan.Effects = append(plan.Effects, Effect{Kind: EffectGoBack})
			stop = true
		}

		if res.Type == model.ResultToast {
			plan.Effects = append(plan.Effects, Effect{Kind: EffectToast, Toast: toastOf(res)})
		}

		if res.Type == model.ResultFileUpload && !res.Success {
			plan.Effects = append(plan.Effects, Effect{Kind: EffectUploadFailure, Message: res.Message})
		}

		if res.Type == model.ResultDownload {
			if res.Success && res.Download != nil {
				plan.Effects = append(plan.Effects, Effect{Kind: EffectDownload, Download: res.Download})
			} else {
				plan.Effects = append(plan.Effects, Effect{Kind: EffectDownloadFailed, Message: res.Message})
			}
		}

		if res.Type == model.ResultAISummary {
			if res.Success && res.Summary != nil {
				plan.Effects = append(plan.Effects, Effect{Kind: EffectSummary, Summary: res.Summary})
			} else {
				plan.Effects = append(plan.Effects, Effect{Kind: EffectSummaryFailed, Message: res.Message})
			}
		}

		// Orthogonal to the type dispatch above: any HTTP-response-shaped
		// value embedded in the result context raises a confirmation.
		for _, data := range scanHTTPResponses(res.Context) {
			plan.Effects = append(plan.Effects, Effect{Kind: EffectConfirmation, Data: data})
		}

		if stop {
			plan.StopAfter = i
			break
		}
	}
	return plan
}

// modalPayload extracts the modal payload of a modal-typed result or an
// openModal action.
func modalPayload(res *model.NodeResult) (map[string]any, bool) {
	if res.Action != nil && res.Action.Type == "openModal" {
		if res.Action.Payload != nil {
			return res.Action.Payload, true
		}
		return map[string]any{}, true
	}
	if res.Type != model.ResultModal {
		return nil, false
	}
	if m, ok := res.Data.(map[string]any); ok {
		return m, true
	}
	if res.Context != nil {
		return res.Context, true
	}
	return map[string]any{}, true
}

func toastOf(res *model.NodeResult) *model.Toast {
	if res.Toast != nil {
		return res.Toast
	}
	variant := model.Toast{Message: res.Message}
	if res.Success {
		variant.Variant = "success"
	} else {
		variant.Variant = "failure"
	}
	return &variant
}

// scanHTTPResponses walks the context for values shaped like
// {statusCode, data} and returns the successful ones, in sorted key
// order so the resulting effects are deterministic.
func scanHTTPResponses(contextData map[string]any) []map[string]any {
	keys := make([]string, 0, len(contextData))
	for k := range contextData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var found []map[string]any
	for _, k := range keys {
		m, ok := contextData[k].(map[string]any)
		if !ok {
			continue
		}
		if code, ok := statusCodeOf(m); ok {
			if _, hasData := m["data"]; hasData && code >= 200 && code < 300 {
				found = append(found, m)
			}
			continue
		}
		found = append(found, scanHTTPResponses(m)...)
	}
	return found
}

func statusCodeOf(m map[string]any) (int, bool) {
	switch code := m["statusCode"].(type) {
	case float64:
		return int(code), true
	case int:
		return code, true
	default:
		return 0, false
	}
}
