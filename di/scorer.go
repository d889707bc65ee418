package di

import "math"

// ConstructorScorer 为候选构造函数打分，分数最高者被选中
type ConstructorScorer interface {
	Score(ctx *Context, d *ConstructorDirective) int
}

const unresolvablePenalty = math.MinInt32 / 2

// standardScorer 带 inject 标记的构造函数最优先；否则每个可由参数覆盖
// 或显式绑定满足的形参加一分，默认值、可选、集合与可自绑定的形参不加分，
// 无法解析的形参大幅扣分。
type standardScorer struct{}

// NewStandardScorer 默认构造函数打分器
func NewStandardScorer() ConstructorScorer {
	return standardScorer{}
}

func (standardScorer) Score(ctx *Context, d *ConstructorDirective) int {
	if d.HasInject() {
		return math.MaxInt32
	}

	score := 1
	for _, target := range d.Targets {
		if constructorArgumentFor(ctx, target) != nil {
			score++
			continue
		}
		if explicitBindingExists(ctx, target) {
			score++
			continue
		}
		if target.IsOptional() {
			continue
		}
		if _, ok := collectionElem(target.Type); ok {
			continue
		}
		if isSelfBindable(ctx.Kernel.registry, target.Type) {
			continue
		}
		score += unresolvablePenalty
	}
	return score
}

func explicitBindingExists(ctx *Context, target *Target) bool {
	req := ctx.Request.CreateChild(target.Type, ctx, target)
	for _, b := range ctx.Kernel.GetBindings(target.Type) {
		if !b.IsImplicit && req.Matches(b) && b.Matches(req) {
			return true
		}
	}
	return false
}
