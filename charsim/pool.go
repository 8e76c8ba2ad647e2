package charsim

import "sync"

var ctxPool = sync.Pool{
	New: func() any {
		return &stepContext{}
	},
}

func newCtx(s *Simulator, cfg Config) *stepContext {
	ctx := ctxPool.Get().(*stepContext)
	ctx.sim = s
	ctx.cfg = cfg
	return ctx
}

func putCtx(ctx *stepContext) {
	ctx.reset()
	ctxPool.Put(ctx)
}
