package species

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const DefaultPokeAPI = "https://pokeapi.co/api/v2"

// PokeAPI fetches species data from a PokeAPI-compatible HTTP service.
type PokeAPI struct {
	BaseURL     string
	HTTP        *http.Client
	Concurrency int // parallel move-detail fetches
}

// NewPokeAPI builds a client; empty baseURL means the public PokeAPI.
func NewPokeAPI(baseURL string, client *http.Client) *PokeAPI {
	if baseURL == "" {
		baseURL = DefaultPokeAPI
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &PokeAPI{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: client, Concurrency: 8}
}

func (p *PokeAPI) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetch, u, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: invalid json from %s", ErrFetch, u)
	}
	return b, nil
}

func (p *PokeAPI) pokemon(ctx context.Context, nameOrID string) (gjson.Result, error) {
	name := strings.ToLower(strings.TrimSpace(nameOrID))
	if name == "" {
		return gjson.Result{}, ErrNotFound
	}
	b, err := p.get(ctx, p.BaseURL+"/pokemon/"+url.PathEscape(name))
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(b), nil
}

// Species implements Provider.
func (p *PokeAPI) Species(ctx context.Context, nameOrID string) (Species, error) {
	doc, err := p.pokemon(ctx, nameOrID)
	if err != nil {
		return Species{}, err
	}
	return parsePokemon(doc), nil
}

func firstString(doc gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := doc.Get(path).String(); v != "" {
			return v
		}
	}
	return ""
}

func parsePokemon(doc gjson.Result) Species {
	sp := Species{
		ID:     int(doc.Get("id").Int()),
		Name:   doc.Get("name").String(),
		Cry:    doc.Get("cries.latest").String(),
		Sprite: firstString(doc, "sprites.other.official-artwork.front_default", "sprites.front_default"),
		Front:  firstString(doc, "sprites.versions.generation-v.black-white.animated.front_default", "sprites.front_default"),
		Back:   firstString(doc, "sprites.versions.generation-v.black-white.animated.back_default", "sprites.back_default"),
	}
	for _, t := range doc.Get("types.#.type.name").Array() {
		sp.Types = append(sp.Types, t.String())
	}
	doc.Get("stats").ForEach(func(_, s gjson.Result) bool {
		sp.Stats.Set(s.Get("stat.name").String(), int(s.Get("base_stat").Int()))
		return true
	})
	return sp
}

func parseMove(name string, doc gjson.Result) Move {
	return Move{
		Name:  name,
		Class: doc.Get("damage_class.name").String(),
		Power: int(doc.Get("power").Int()), // null power reads as 0
		PP:    int(doc.Get("pp").Int()),
		Type:  doc.Get("type.name").String(),
	}
}

// Moves implements Provider. Move details are fetched in parallel; a move
// whose detail request fails is skipped rather than failing the lookup.
func (p *PokeAPI) Moves(ctx context.Context, nameOrID string) ([]Move, error) {
	doc, err := p.pokemon(ctx, nameOrID)
	if err != nil {
		return nil, err
	}
	refs := doc.Get("moves.#.move").Array()
	details := make([]*Move, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}
	for i, ref := range refs {
		name, u := ref.Get("name").String(), ref.Get("url").String()
		if u == "" {
			continue
		}
		g.Go(func() error {
			b, err := p.get(gctx, u)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return nil
			}
			m := parseMove(name, gjson.ParseBytes(b))
			details[i] = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	all := make([]Move, 0, len(details))
	for _, m := range details {
		if m != nil {
			all = append(all, *m)
		}
	}
	return Usable(all), nil
}

var _ Provider = (*PokeAPI)(nil)

