package rastergrid

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestGeoTransformFromIFD(t *testing.T) {
	for _, tc := range []struct {
		name     string
		geoKeys  *ParsedGeoKeys
		expected [6]float64
	}{
		{
			name:     "no_geokeys",
			expected: [6]float64{500000, 100, 0, 4000000, 0, -100},
		},
		{
			name: "pixel_is_area",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{GeoKeyGTRasterType: 1},
			},
			expected: [6]float64{500000, 100, 0, 4000000, 0, -100},
		},
		{
			name: "pixel_is_point",
			geoKeys: &ParsedGeoKeys{
				Params: map[GeoKey]int{GeoKeyGTRasterType: 2},
			},
			expected: [6]float64{499950, 100, 0, 4000050, 0, -100},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ifd := &geoTIFFIFD{
				ModelPixelScaleTag: []float64{100, 100, 0},
				ModelTiepointTag:   []float64{0, 0, 0, 500000, 4000000, 0},
			}
			actual, err := geoTransformFromIFD(ifd, tc.geoKeys)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestGeoTransformFromIFDNoGeoreferencing(t *testing.T) {
	_, err := geoTransformFromIFD(&geoTIFFIFD{}, nil)
	assert.IsError(t, err, errors.ErrUnsupported)
}

func TestGeoTIFFLayoutCheckSize(t *testing.T) {
	newLayout := func(compression, width, length int, offsets, byteCounts []uint64) *geoTIFFLayout {
		return &geoTIFFLayout{
			byteOrder:       binary.LittleEndian,
			compression:     compression,
			bytesPerSample:  4,
			bands:           1,
			planes:          1,
			samplesPerPixel: 1,
			blockWidth:      width,
			blockLength:     length,
			blockOffsets:    offsets,
			blockByteCounts: byteCounts,
			imageWidth:      width,
			imageLength:     length,
		}
	}
	for _, tc := range []struct {
		name        string
		layout      *geoTIFFLayout
		size        int64
		expectedErr bool
	}{
		{
			name:   "valid",
			layout: newLayout(compressionNone, 10, 10, []uint64{8}, []uint64{400}),
			size:   1024,
		},
		{
			name:        "byte_count_past_end",
			layout:      newLayout(compressionNone, 10, 10, []uint64{8}, []uint64{1 << 40}),
			size:        1024,
			expectedErr: true,
		},
		{
			name:        "offset_past_end",
			layout:      newLayout(compressionNone, 10, 10, []uint64{2048}, []uint64{400}),
			size:        1024,
			expectedErr: true,
		},
		{
			name:        "offset_overflow",
			layout:      newLayout(compressionNone, 10, 10, []uint64{8}, []uint64{^uint64(0)}),
			size:        1024,
			expectedErr: true,
		},
		{
			name:        "image_too_large",
			layout:      newLayout(compressionNone, 1<<20, 1<<20, []uint64{8}, []uint64{400}),
			size:        1024,
			expectedErr: true,
		},
		{
			name:   "lzw_expansion",
			layout: newLayout(compressionLZW, 1000, 1000, []uint64{8}, []uint64{1000}),
			size:   1024,
		},
		{
			name:        "lzw_too_large",
			layout:      newLayout(compressionLZW, 1<<20, 1<<20, []uint64{8}, []uint64{1000}),
			size:        1024,
			expectedErr: true,
		},
		{
			name:        "mismatched_blocks",
			layout:      newLayout(compressionNone, 10, 10, []uint64{8, 408}, []uint64{400}),
			size:        1024,
			expectedErr: true,
		},
		{
			name:        "zero_block",
			layout:      newLayout(compressionNone, 0, 10, []uint64{8}, []uint64{400}),
			size:        1024,
			expectedErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.layout.checkSize(tc.size)
			if tc.expectedErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
