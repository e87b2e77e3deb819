package engine

import (
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/similar"
)

// 默认请求参数
const (
	DefaultTopN  = 3
	DefaultAlpha = 0.7
)

type options struct {
	topN           int
	alpha          float64
	minActiveItems int
	popularCount   int
	rule           string
	rnd            *rand.Rand
	log            *zerolog.Logger
	cacheOpts      []similar.Option
}

// Option 配置 Engine。
type Option func(*options)

// WithTopN 设置默认返回条数，<= 0 时忽略。
func WithTopN(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topN = n
		}
	}
}

// WithAlpha 设置默认融合权重，超出 [0,1] 时忽略。
func WithAlpha(a float64) Option {
	return func(o *options) {
		if validAlpha(a) {
			o.alpha = a
		}
	}
}

func WithMinActiveItems(n int) Option {
	return func(o *options) { o.minActiveItems = n }
}

func WithPopularCount(n int) Option {
	return func(o *options) { o.popularCount = n }
}

// WithRule 设置 CEL 过滤表达式，空串表示不过滤。
func WithRule(expr string) Option {
	return func(o *options) { o.rule = expr }
}

// WithRand 注入被动访客探索用的随机源，测试用它固定遍历顺序。
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rnd = r }
}

// WithSeed 是 WithRand(rand.New(rand.NewPCG(seed, seed))) 的简写。
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed)))
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = &l }
}

// WithCacheOptions 透传给相似商品缓存。
func WithCacheOptions(opts ...similar.Option) Option {
	return func(o *options) { o.cacheOpts = append(o.cacheOpts, opts...) }
}

// RequestOption 覆盖单次请求的参数。
type RequestOption func(*request)

type request struct {
	topN  int
	alpha float64
}

// TopN 覆盖本次请求的返回条数，<= 0 时使用默认值。
func TopN(n int) RequestOption {
	return func(r *request) { r.topN = n }
}

// Alpha 覆盖本次请求的融合权重，超出 [0,1] 时使用默认值。
func Alpha(a float64) RequestOption {
	return func(r *request) { r.alpha = a }
}

func validAlpha(a float64) bool {
	return a >= 0 && a <= 1
}

// lockedRand 让 *rand.Rand 可以被并发请求共享。
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
