package drift

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"io/fs"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // decoder registration
	"golang.org/x/sync/errgroup"
)

// Asset names one image in a manifest. When ID is empty the Src doubles as
// the ID.
type Asset struct {
	ID  string `yaml:"id"`
	Src string `yaml:"src"`
}

func (a Asset) key() string {
	if a.ID != "" {
		return a.ID
	}
	return a.Src
}

// ImageLoader fetches and decodes one image. Implementations must be safe
// for concurrent use; LoadAssets calls them from several goroutines.
type ImageLoader interface {
	LoadImage(ctx context.Context, src string) (*ebiten.Image, error)
}

// ImageLoaderFunc adapts a function to ImageLoader.
type ImageLoaderFunc func(ctx context.Context, src string) (*ebiten.Image, error)

// LoadImage calls f.
func (f ImageLoaderFunc) LoadImage(ctx context.Context, src string) (*ebiten.Image, error) {
	return f(ctx, src)
}

// FSLoader decodes PNG, JPEG and WebP images from a file system, typically an
// embed.FS or os.DirFS.
type FSLoader struct {
	FS fs.FS
}

// LoadImage opens src in the loader's file system and decodes it.
func (l FSLoader) LoadImage(ctx context.Context, src string) (*ebiten.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := l.FS.Open(src)
	if err != nil {
		return nil, fmt.Errorf("drift: open %s: %w", src, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("drift: decode %s: %w", src, err)
	}
	return ebiten.NewImageFromImage(img), nil
}

// AssetSet holds the images that loaded successfully and the errors of the
// ones that did not.
type AssetSet struct {
	images map[string]*ebiten.Image
	failed map[string]error
	ids    []string
}

// Image returns the image loaded under id.
func (a *AssetSet) Image(id string) (*ebiten.Image, bool) {
	img, ok := a.images[id]
	return img, ok
}

// IDs returns the loaded asset IDs in manifest order. The returned slice
// MUST NOT be mutated by the caller.
func (a *AssetSet) IDs() []string {
	return a.ids
}

// Len returns the number of loaded images.
func (a *AssetSet) Len() int {
	return len(a.ids)
}

// Err returns the load error recorded for id, or nil.
func (a *AssetSet) Err(id string) error {
	return a.failed[id]
}

// Failed returns the number of assets that could not be loaded.
func (a *AssetSet) Failed() int {
	return len(a.failed)
}

// maxConcurrentLoads bounds the number of images decoded at once.
const maxConcurrentLoads = 4

// LoadAssets loads every asset through loader. A failed asset is logged and
// recorded in the returned set but does not stop the rest of the batch; the
// only error returned is ctx's.
//
// onProgress, when non-nil, receives the completed percentage after each
// asset, or 100 once for an empty manifest. Calls are serialised but come
// from loader goroutines.
func LoadAssets(ctx context.Context, loader ImageLoader, assets []Asset, onProgress func(percent int)) (*AssetSet, error) {
	set := &AssetSet{
		images: make(map[string]*ebiten.Image, len(assets)),
		failed: make(map[string]error),
	}
	if len(assets) == 0 {
		if onProgress != nil {
			onProgress(100)
		}
		return set, nil
	}

	results := make([]*ebiten.Image, len(assets))
	errs := make([]error, len(assets))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, a := range assets {
		g.Go(func() error {
			img, err := loader.LoadImage(gctx, a.Src)
			if err == nil && img == nil {
				err = errors.New("loader returned no image")
			}
			results[i], errs[i] = img, err

			mu.Lock()
			done++
			if onProgress != nil {
				onProgress(done * 100 / len(assets))
			}
			mu.Unlock()

			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, a := range assets {
		id := a.key()
		if errs[i] != nil {
			logger.Warn("asset failed to load",
				zap.String("id", id),
				zap.String("src", a.Src),
				zap.Error(errs[i]),
			)
			set.failed[id] = errs[i]
			continue
		}
		if _, dup := set.images[id]; !dup {
			set.ids = append(set.ids, id)
		}
		set.images[id] = results[i]
		delete(set.failed, id)
	}
	return set, nil
}
