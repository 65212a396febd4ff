package config

import "github.com/vango-dev/lazyload/pkg/geometry"

type nopWindow struct{}

func (nopWindow) InnerSize() geometry.Size  { return geometry.Size{Width: 800, Height: 600} }
func (nopWindow) ClientSize() geometry.Size { return geometry.Size{} }
func (nopWindow) On(string, func()) func()  { return func() {} }
