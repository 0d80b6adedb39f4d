package pulse

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Texture wraps a wgpu.Texture and an identity wgpu.TextureView.
// A Texture implements Image and can be rendered to.
type Texture struct {
	texture     *wgpu.Texture
	textureView *wgpu.TextureView

	region Rectangle2u
}

var _ RenderAttachment = (*Texture)(nil)

type NewTextureOptions struct {
	Format wgpu.TextureFormat
	Width  uint32
	Height uint32

	Label string
}

func NewTexture(ctx *Context, opts NewTextureOptions) (*Texture, error) {
	desc := &wgpu.TextureDescriptor{
		Label:         opts.Label,
		Format:        opts.Format,
		SampleCount:   1,
		MipLevelCount: 1,

		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              opts.Width,
			Height:             opts.Height,
			DepthOrArrayLayers: 1,
		},

		// per-eye textures are rendered to and then copied by the compositor
		Usage: wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageRenderAttachment |
			wgpu.TextureUsageCopySrc,
	}

	texture, err := ctx.Device.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}

	textureGuard := NewReleaseGuard(texture)
	defer textureGuard.Release()

	// now create a default texture view
	textureView, err := texture.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("create texture view: %w", err)
	}

	textureGuard.Keep()

	t := &Texture{
		texture:     texture,
		textureView: textureView,
		region:      RectangleFromXYWH(0, 0, desc.Size.Width, desc.Size.Height),
	}

	return t, nil
}

// WrapTexture creates a texture from an existing wgpu.Texture and
// wgpu.TextureView, e.g. the current texture of a surface.
func WrapTexture(texture *wgpu.Texture, textureView *wgpu.TextureView) *Texture {
	return &Texture{
		texture:     texture,
		textureView: textureView,
		region:      RectangleFromXYWH(0, 0, texture.GetWidth(), texture.GetHeight()),
	}
}

func (t *Texture) Size() (width, height uint32) {
	return t.region.Width(), t.region.Height()
}

func (t *Texture) RenderView() (view, resolveTarget *wgpu.TextureView) {
	return t.textureView, nil
}

// Release releases the texture view and the texture. You must be sure to
// not use the texture after calling release.
func (t *Texture) Release() {
	t.textureView.Release()
	t.texture.Release()
}
