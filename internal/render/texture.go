// texture.go
package render

import (
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"meshview/vk"
)

// Texture is a sampled 2D image with a full mip chain.
type Texture struct {
	Image     BoundImage
	View      vk.ImageView
	Sampler   vk.Sampler
	MipLevels uint32
}

// decodeRGBA reads a PNG file into tightly packed 8-bit RGBA pixels.
func decodeRGBA(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, markf(err, ErrAsset, "opening texture %q", path)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, markf(err, ErrAsset, "decoding texture %q", path)
	}

	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}

	rgba := image.NewRGBA(src.Bounds())
	xdraw.Copy(rgba, rgba.Bounds().Min, src, src.Bounds(), xdraw.Src, nil)
	return rgba, nil
}

// LoadTexture reads a PNG file, uploads it to a device-local image and
// generates the remaining mip levels on the GPU. The image ends up
// with every level in SHADER_READ_ONLY_OPTIMAL.
func LoadTexture(allocator *Allocator, transfer *Transfer, physicalDevice vk.PhysicalDevice, maxAnisotropy float32, path string) (*Texture, error) {
	rgba, err := decodeRGBA(path)
	if err != nil {
		return nil, err
	}

	width := uint32(rgba.Rect.Dx())
	height := uint32(rgba.Rect.Dy())
	mipLevels := mipLevelCount(width, height)

	staging, err := allocator.CreateBuffer(uint64(len(rgba.Pix)),
		vk.BUFFER_USAGE_TRANSFER_SRC_BIT,
		vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT|vk.MEMORY_PROPERTY_HOST_COHERENT_BIT)
	if err != nil {
		return nil, err
	}
	defer allocator.DestroyBuffer(staging)

	if err := allocator.device.UploadToBuffer(staging.Memory, rgba.Pix); err != nil {
		return nil, markf(err, ErrTransfer, "writing texture staging buffer")
	}

	img, err := allocator.CreateImage(&vk.ImageCreateInfo{
		ImageType:     vk.IMAGE_TYPE_2D,
		Format:        vk.FORMAT_R8G8B8A8_SRGB,
		Extent:        vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:     mipLevels,
		ArrayLayers:   1,
		Samples:       vk.SAMPLE_COUNT_1_BIT,
		Tiling:        vk.IMAGE_TILING_OPTIMAL,
		Usage:         vk.IMAGE_USAGE_TRANSFER_SRC_BIT | vk.IMAGE_USAGE_TRANSFER_DST_BIT | vk.IMAGE_USAGE_SAMPLED_BIT,
		SharingMode:   vk.SHARING_MODE_EXCLUSIVE,
		InitialLayout: vk.IMAGE_LAYOUT_UNDEFINED,
	}, vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
	if err != nil {
		return nil, err
	}

	cleanup := func() { allocator.DestroyImage(img) }

	if err := transfer.TransitionImageLayout(img.Image, vk.IMAGE_ASPECT_COLOR_BIT, mipLevels,
		vk.IMAGE_LAYOUT_UNDEFINED, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL); err != nil {
		cleanup()
		return nil, err
	}

	if err := transfer.CopyBufferToImage(staging.Buffer, img.Image, width, height); err != nil {
		cleanup()
		return nil, err
	}

	// Mip generation also moves every level, the base level included,
	// into SHADER_READ_ONLY_OPTIMAL. With a single level the loop body
	// never runs and only the final transition executes.
	if err := transfer.GenerateMipmaps(physicalDevice, img.Image, vk.FORMAT_R8G8B8A8_SRGB, width, height, mipLevels); err != nil {
		cleanup()
		return nil, err
	}

	view, err := allocator.device.CreateImageView(&vk.ImageViewCreateInfo{
		Image:    img.Image,
		ViewType: vk.IMAGE_VIEW_TYPE_2D,
		Format:   vk.FORMAT_R8G8B8A8_SRGB,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
			LevelCount: mipLevels,
			LayerCount: 1,
		},
	})
	if err != nil {
		cleanup()
		return nil, markf(err, ErrResourceCreation, "creating texture image view")
	}

	sampler, err := allocator.device.CreateSampler(&vk.SamplerCreateInfo{
		MagFilter:        vk.FILTER_LINEAR,
		MinFilter:        vk.FILTER_LINEAR,
		MipmapMode:       vk.SAMPLER_MIPMAP_MODE_LINEAR,
		AddressModeU:     vk.SAMPLER_ADDRESS_MODE_REPEAT,
		AddressModeV:     vk.SAMPLER_ADDRESS_MODE_REPEAT,
		AddressModeW:     vk.SAMPLER_ADDRESS_MODE_REPEAT,
		AnisotropyEnable: true,
		MaxAnisotropy:    maxAnisotropy,
		MinLod:           0,
		MaxLod:           float32(mipLevels),
		BorderColor:      vk.BORDER_COLOR_FLOAT_OPAQUE_BLACK,
	})
	if err != nil {
		allocator.device.DestroyImageView(view)
		cleanup()
		return nil, markf(err, ErrResourceCreation, "creating texture sampler")
	}

	return &Texture{Image: img, View: view, Sampler: sampler, MipLevels: mipLevels}, nil
}

func (t *Texture) Destroy(allocator *Allocator) {
	allocator.device.DestroySampler(t.Sampler)
	allocator.device.DestroyImageView(t.View)
	allocator.DestroyImage(t.Image)
}
