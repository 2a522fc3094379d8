// Package thumbs provides a bounded thumbnail cache for the browser list.
package thumbs

import (
	"container/list"
	"fmt"
	"image"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
)

// Decoder loads the full-size image for a path.
type Decoder func(path string) (image.Image, error)

// Cache generates and holds downscaled thumbnails, keyed by path plus
// file modification time so an edited file misses the stale entry.
// Eviction is LRU at a fixed entry budget.
type Cache struct {
	mu       sync.Mutex
	capacity int
	maxEdge  int
	decode   Decoder
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	byPath   map[string][]string
}

type cacheEntry struct {
	key  string
	path string
	img  image.Image
}

// New creates a cache holding at most capacity thumbnails, each scaled
// to fit within maxEdge pixels on its longer side.
func New(capacity, maxEdge int, decode Decoder) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	if maxEdge < 1 {
		maxEdge = 1
	}
	return &Cache{
		capacity: capacity,
		maxEdge:  maxEdge,
		decode:   decode,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		byPath:   make(map[string][]string),
	}
}

func cacheKey(path string, modTime time.Time) string {
	return fmt.Sprintf("%s|%d", path, modTime.UnixNano())
}

// Get returns a cached thumbnail without generating one.
func (c *Cache) Get(path string, modTime time.Time) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[cacheKey(path, modTime)]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).img, true
}

// Thumbnail returns the thumbnail for a media file, decoding and scaling
// it on a miss. Safe for concurrent use; concurrent misses on the same
// key may decode twice, the last result wins.
func (c *Cache) Thumbnail(path string, modTime time.Time) (image.Image, error) {
	if img, ok := c.Get(path, modTime); ok {
		return img, nil
	}
	full, err := c.decode(path)
	if err != nil {
		return nil, err
	}
	thumb := c.scale(full)

	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(path, modTime)
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).img = thumb
		return thumb, nil
	}
	el := c.order.PushFront(&cacheEntry{key: key, path: path, img: thumb})
	c.entries[key] = el
	c.byPath[path] = append(c.byPath[path], key)
	for c.order.Len() > c.capacity {
		c.evictOldest()
	}
	return thumb, nil
}

// Invalidate drops every cached thumbnail for a path, regardless of the
// modification time it was keyed under.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.byPath[path] {
		if el, ok := c.entries[key]; ok {
			c.order.Remove(el)
			delete(c.entries, key)
		}
	}
	delete(c.byPath, path)
}

// Len returns the number of cached thumbnails.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) evictOldest() {
	el := c.order.Back()
	if el == nil {
		return
	}
	entry := el.Value.(*cacheEntry)
	c.order.Remove(el)
	delete(c.entries, entry.key)

	keys := c.byPath[entry.path]
	for i, k := range keys {
		if k == entry.key {
			c.byPath[entry.path] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(c.byPath[entry.path]) == 0 {
		delete(c.byPath, entry.path)
	}
}

func (c *Cache) scale(src image.Image) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= c.maxEdge && h <= c.maxEdge {
		return src
	}
	var tw, th int
	if w >= h {
		tw = c.maxEdge
		th = h * c.maxEdge / w
	} else {
		th = c.maxEdge
		tw = w * c.maxEdge / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}
