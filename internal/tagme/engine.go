// Package tagme implements the entity-linking pipeline of
// SPEC_FULL.md §4.10: n-gram enumeration over a surface-form dictionary,
// link-probability filtering, containment pruning, Milne-Witten
// relatedness voting, top-K disambiguation, and a final rho-prune.
package tagme

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kthwaite/wikitools/internal/searchindex"
	"github.com/kthwaite/wikitools/internal/surfaceform"
)

// candidateSet maps a candidate target page to its commonness
// (count / sf.WikiOccurrences) for one mention.
type candidateSet map[string]float32

// Engine holds the two read-mostly resources a query needs plus the
// per-query scratch state described in §4.10's State line.
type Engine struct {
	params Params
	forms  surfaceform.Store
	index  *searchindex.Reader

	mutualOutlinks sync.Map // string key -> uint64
	linkProb       linkProbTable
}

// NewEngine builds a query engine over an already-open surface-form
// store and search index.
func NewEngine(forms surfaceform.Store, index *searchindex.Reader, params Params) *Engine {
	return &Engine{params: params, forms: forms, index: index}
}

// Tagged is one disambiguated, rho-surviving (mention, entity) pair.
type Tagged struct {
	Mention string
	Entity  string
	Rho     float32
}

// Query runs the full pipeline over text and returns every
// (mention, entity) pair with rho >= rhoTh.
func (e *Engine) Query(ctx context.Context, text string, rhoTh float32) ([]Tagged, error) {
	candidates, err := e.collectCandidates(text)
	if err != nil {
		return nil, err
	}
	candidates = e.pruneContainment(candidates)
	if len(candidates) == 0 {
		return nil, nil
	}

	if err := e.prewarmMutualOutlinks(ctx, candidates); err != nil {
		return nil, err
	}

	relScores, err := e.disambiguationScores(candidates)
	if err != nil {
		return nil, err
	}
	disambiguated := e.disambiguate(candidates, relScores)
	return e.pruneByRho(disambiguated, rhoTh)
}

// collectCandidates runs n-gram enumeration and per-mention candidate
// lookup, the first half of §4.10's "N-gram enumeration" step.
func (e *Engine) collectCandidates(text string) (map[string]candidateSet, error) {
	preprocessed := Preprocess(text)
	seen := make(map[string]struct{})
	out := make(map[string]candidateSet)

	for _, ngram := range Ngrams(preprocessed, e.params.NgramMin, e.params.NgramMax) {
		if _, dup := seen[ngram]; dup {
			continue
		}
		seen[ngram] = struct{}{}

		if allStopwords(ngram) {
			continue
		}
		sf, found, err := e.forms.Get(ngram)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		if sf.WikiOccurrences < 2.0 {
			continue
		}

		df, err := e.index.DF(ngram)
		if err != nil {
			return nil, err
		}
		denom := sf.WikiOccurrences
		if float32(df) > denom {
			denom = float32(df)
		}
		if denom == 0 {
			continue
		}
		pLink := sf.WikiOccurrences / denom
		if pLink < e.params.LinkProbabilityThreshold {
			continue
		}

		cands := make(candidateSet)
		for _, pc := range sf.Anchors {
			commonness := pc.Count / sf.WikiOccurrences
			if commonness >= e.params.CandidateMentionThreshold {
				cands[pc.Page] = commonness
			}
		}
		if len(cands) == 0 {
			continue
		}
		out[ngram] = cands
		e.linkProb.set(ngram, pLink)
	}
	return out, nil
}

// linkProb is a tiny typed wrapper so collectCandidates and
// pruneContainment share the per-mention link-probability table
// without a bare package-level map.
type linkProbTable struct {
	mu sync.Mutex
	m  map[string]float32
}

func (t *linkProbTable) set(k string, v float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m == nil {
		t.m = make(map[string]float32)
	}
	t.m[k] = v
}

func (t *linkProbTable) get(k string) float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.m[k]; ok {
		return v
	}
	return 1.0
}

// pruneContainment drops a shorter mention m_i when a longer surviving
// mention m_j contains it as a substring and has a strictly higher link
// probability, per §4.10's containment-pruning step.
func (e *Engine) pruneContainment(candidates map[string]candidateSet) map[string]candidateSet {
	mentions := make([]string, 0, len(candidates))
	for m := range candidates {
		mentions = append(mentions, m)
	}
	sort.SliceStable(mentions, func(i, j int) bool {
		return wordCount(mentions[i]) < wordCount(mentions[j])
	})

	drop := make(map[string]struct{})
	for i, mi := range mentions {
		for j := i + 1; j < len(mentions); j++ {
			mj := mentions[j]
			if strings.Contains(mj, mi) && e.linkProb.get(mi) < e.linkProb.get(mj) {
				drop[mi] = struct{}{}
				break
			}
		}
	}

	out := make(map[string]candidateSet, len(candidates)-len(drop))
	for m, c := range candidates {
		if _, dropped := drop[m]; dropped {
			continue
		}
		out[m] = c
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// prewarmMutualOutlinks computes every entity-pair inlink count in
// parallel before the voting loop, the only concurrency the query path
// permits per §5.
func (e *Engine) prewarmMutualOutlinks(ctx context.Context, candidates map[string]candidateSet) error {
	pairs := make(map[[2]string]struct{})
	entities := make([]string, 0)
	seenEntity := make(map[string]struct{})
	for _, cands := range candidates {
		for en := range cands {
			if _, ok := seenEntity[en]; !ok {
				seenEntity[en] = struct{}{}
				entities = append(entities, en)
			}
		}
	}
	for i := range entities {
		for j := i + 1; j < len(entities); j++ {
			pairs[sortedPair(entities[i], entities[j])] = struct{}{}
		}
	}

	group, _ := errgroup.WithContext(ctx)
	for en := range seenEntity {
		en := en
		group.Go(func() error {
			_, err := e.getInLinks(en)
			return err
		})
	}
	for pair := range pairs {
		pair := pair
		group.Go(func() error {
			_, err := e.getInLinks(pair[0], pair[1])
			return err
		})
	}
	return group.Wait()
}

func sortedPair(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

// getInLinks memoizes Reader.Inlinks in the engine's own sync.Map, keyed
// by the sorted entity tuple (raw names joined with NUL), as §4.10 requires.
func (e *Engine) getInLinks(entities ...string) (uint64, error) {
	key := mutualOutlinksKey(entities)
	if v, ok := e.mutualOutlinks.Load(key); ok {
		return v.(uint64), nil
	}
	// Candidate entity names come from SurfaceForm.Anchors' raw page
	// titles (spaces, mixed case); the outlinks field tokenizes on
	// whitespace only with no lowercase filter, so normalization here
	// must match it exactly: underscore-join, no case folding.
	normalized := make([]string, len(entities))
	for i, en := range entities {
		normalized[i] = strings.ReplaceAll(en, " ", "_")
	}
	n, err := e.index.Inlinks(normalized...)
	if err != nil {
		return 0, err
	}
	e.mutualOutlinks.Store(key, n)
	return n, nil
}

func mutualOutlinksKey(entities []string) string {
	sorted := append([]string(nil), entities...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// relMW computes the Milne-Witten relatedness of two entities.
func (e *Engine) relMW(e0, e1 string) (float32, error) {
	if e0 == e1 {
		return 1.0, nil
	}
	a, err := e.getInLinks(e0)
	if err != nil {
		return 0, err
	}
	b, err := e.getInLinks(e1)
	if err != nil {
		return 0, err
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == 0 {
		return 0, nil
	}
	c, err := e.getInLinks(e0, e1)
	if err != nil {
		return 0, err
	}
	if c == 0 {
		return 0, nil
	}
	n, err := e.index.DocCount()
	if err != nil {
		return 0, err
	}
	r := 1.0 - (math.Log(float64(hi))-math.Log(float64(c)))/(math.Log(float64(n))-math.Log(float64(lo)))
	if r < 0 {
		r = 0
	}
	return float32(r), nil
}

// disambiguationScores computes rel_score(m_i, e) for every candidate
// entity of every mention, per §4.10's "Voting" step.
func (e *Engine) disambiguationScores(candidates map[string]candidateSet) (map[string]map[string]float32, error) {
	out := make(map[string]map[string]float32, len(candidates))
	for mi, cands := range candidates {
		scores := make(map[string]float32, len(cands))
		for entity := range cands {
			var sum float32
			for mj, candsJ := range candidates {
				if mj == mi {
					continue
				}
				v, err := e.vote(entity, candsJ)
				if err != nil {
					return nil, err
				}
				sum += v
			}
			scores[entity] = sum
		}
		out[mi] = scores
	}
	return out, nil
}

func (e *Engine) vote(entity string, competitors candidateSet) (float32, error) {
	if len(competitors) == 0 {
		return 0, nil
	}
	var sum float32
	for ek, cmnK := range competitors {
		rel, err := e.relMW(entity, ek)
		if err != nil {
			return 0, err
		}
		sum += rel * cmnK
	}
	return sum / float32(len(competitors)), nil
}

// disambiguate picks, for each mention, a single winning entity from its
// top-K relevance band, per §4.10's pruning/disambiguation step.
func (e *Engine) disambiguate(candidates map[string]candidateSet, relScores map[string]map[string]float32) map[string]string {
	out := make(map[string]string)
	for mi, scores := range relScores {
		if len(scores) == 0 {
			continue
		}
		topK := topKEntities(scores, e.params.KTh)
		var bestEntity string
		var bestCommonness float32 = -1
		for _, en := range topK {
			cmn := candidates[mi][en]
			if cmn > bestCommonness {
				bestCommonness = cmn
				bestEntity = en
			}
		}
		if bestEntity != "" {
			out[mi] = bestEntity
		}
	}
	return out
}

// topKEntities sorts scores descending and returns the first k
// unique-score bands, where k = max(round(n*kTh), 1) — this module's
// resolution of the spec's min-vs-max Open Question.
func topKEntities(scores map[string]float32, kTh float32) []string {
	type scored struct {
		entity string
		score  float32
	}
	ranked := make([]scored, 0, len(scores))
	for en, sc := range scores {
		ranked = append(ranked, scored{en, sc})
	}
	if len(ranked) == 1 {
		return []string{ranked[0].entity}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].entity < ranked[j].entity
	})

	k := int(math.Round(float64(len(ranked)) * float64(kTh)))
	if k < 1 {
		k = 1
	}

	out := make([]string, 0, k)
	band := 1
	prevScore := ranked[0].score
	for _, r := range ranked {
		if r.score != prevScore {
			band++
		}
		if band > k {
			break
		}
		out = append(out, r.entity)
		prevScore = r.score
	}
	return out
}

// pruneByRho computes coh(m,e) and rho(m,e) for each disambiguated pair
// and drops those below rhoTh, per §4.10's final step.
func (e *Engine) pruneByRho(disambiguated map[string]string, rhoTh float32) ([]Tagged, error) {
	n := len(disambiguated)
	var out []Tagged
	for mi, entity := range disambiguated {
		var sum float32
		for mj, ej := range disambiguated {
			if mj == mi {
				continue
			}
			rel, err := e.relMW(ej, entity)
			if err != nil {
				return nil, err
			}
			sum += rel
		}
		divisor := n - 1
		if divisor < 1 {
			divisor = 1
		}
		coh := sum / float32(divisor)
		pLink := e.linkProb.get(mi)
		rho := (pLink + coh) / 2
		if rho >= rhoTh {
			out = append(out, Tagged{Mention: mi, Entity: entity, Rho: rho})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mention < out[j].Mention })
	return out, nil
}
