package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/engine"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/pubsub"
)

// PageHandlers renders the matchup form
type PageHandlers struct {
	engine *engine.Engine
	pubsub *pubsub.PubSub
	tmpl   *template.Template
}

// pageData is what index.html renders
type pageData struct {
	Catalog catalog.Export
	Request models.MatchupRequest
	Result  *engine.Result
	Error   string
}

// LoadTemplates parses every template in dir
func LoadTemplates(dir string) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

var templateFuncs = template.FuncMap{
	"contains": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
	"pct": func(v float64) string { return strconv.FormatFloat(v*100, 'f', 0, 64) },
	"args": func(kv ...any) map[string]any {
		m := make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			if k, ok := kv[i].(string); ok {
				m[k] = kv[i+1]
			}
		}
		return m
	},
}

// NewPageHandlers creates the page handlers
func NewPageHandlers(eng *engine.Engine, ps *pubsub.PubSub, tmpl *template.Template) *PageHandlers {
	return &PageHandlers{engine: eng, pubsub: ps, tmpl: tmpl}
}

// Index renders the empty form with every set selected
func (p *PageHandlers) Index(w http.ResponseWriter, r *http.Request) {
	cat := p.engine.Catalog()
	weight := p.engine.Tunables().FairnessWeight
	p.render(w, pageData{
		Catalog: cat.Export(),
		Request: models.MatchupRequest{
			OwnedSets:      cat.Sets(),
			P1:             models.PlayerPreferences{SelectionMethod: models.SelectionSuggest},
			Opp:            models.PlayerPreferences{SelectionMethod: models.SelectionSuggest},
			FairnessWeight: &weight,
		},
	})
}

// Submit resolves the posted form and re-renders the page
func (p *PageHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	data := pageData{Catalog: p.engine.Catalog().Export()}

	req, err := FormRequest(r.PostForm)
	if err == nil {
		err = engine.ValidateRequest(&req)
	}
	data.Request = req
	if err != nil {
		logger.Warn("Rejected form submission", "error", err)
		data.Error = err.Error()
		w.WriteHeader(http.StatusBadRequest)
		p.render(w, data)
		return
	}

	data.Result = p.engine.Resolve(req)
	if !data.Result.Empty() && p.pubsub != nil {
		p.pubsub.Publish(pubsub.NewEvent(pubsub.EventMatchupResolved, resolvedPayload(req, data.Result)))
	}
	// the form carries the resolved locks into the next submission
	data.Request.Locks = data.Result.Locks
	p.render(w, data)
}

func (p *PageHandlers) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := p.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.Error("Failed to render page", "error", err)
	}
}

// FormRequest assembles a matchup request from the form fields
func FormRequest(form url.Values) (models.MatchupRequest, error) {
	req := models.MatchupRequest{
		OwnedSets: nonEmpty(form["owned_sets"]),
		P1:        formPrefs(form, models.PlayerOne),
		Opp:       formPrefs(form, models.PlayerOpponent),
		Locks: models.LockState{
			P1:  strings.TrimSpace(form.Get("current_locked_p1_id")),
			Opp: strings.TrimSpace(form.Get("current_locked_opp_id")),
		},
	}

	action, err := models.ParseAction(form.Get("action"))
	if err != nil {
		return req, err
	}
	req.Action = action

	if raw := strings.TrimSpace(form.Get("fairness_weight")); raw != "" {
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("fairness_weight: %w", err)
		}
		req.FairnessWeight = &w
	}
	return req, nil
}

func formPrefs(form url.Values, p models.Player) models.PlayerPreferences {
	prefix := string(p) + "_"
	method := models.SelectionMethod(form.Get(prefix + "selection_method"))
	if method == "" {
		method = models.SelectionSuggest
	}
	prefs := models.PlayerPreferences{
		SelectionMethod: method,
		Playstyles:      nonEmpty(form[prefix+"playstyles"]),
	}
	if method == models.SelectionDirectChoice {
		prefs.ChosenFighterID = strings.TrimSpace(form.Get(prefix + "chosen_fighter"))
	}
	if r, err := models.ParseRange(form.Get(prefix + "range")); err == nil {
		prefs.Range = r
	} else {
		// keep the raw value so validation reports it
		prefs.Range = models.Range(form.Get(prefix + "range"))
	}
	return prefs
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
