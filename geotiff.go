package rastergrid

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	"golang.org/x/image/tiff/lzw"
)

var errShortRead = errors.New("short read")

const (
	compressionNone = 1
	compressionLZW  = 5

	planarConfigurationChunky = 1
	planarConfigurationPlanar = 2

	sampleFormatIEEEFP = 3

	// maxLZWExpansion bounds the ratio of decoded to encoded LZW bytes.
	maxLZWExpansion = 4096
)

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal an
// IFD.
type geoTIFFIFD struct {
	ImageWidth                uint64    `tiff:"field,tag=256"`
	ImageLength               uint64    `tiff:"field,tag=257"`
	BitsPerSample             []uint16  `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	StripOffsets              []uint64  `tiff:"field,tag=273"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	RowsPerStrip              uint64    `tiff:"field,tag=278"`
	StripByteCounts           []uint64  `tiff:"field,tag=279"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	Predictor                 uint16    `tiff:"field,tag=317"`
	TileWidth                 uint64    `tiff:"field,tag=322"`
	TileLength                uint64    `tiff:"field,tag=323"`
	TileOffsets               []uint64  `tiff:"field,tag=324"`
	TileByteCounts            []uint64  `tiff:"field,tag=325"`
	SampleFormat              []uint16  `tiff:"field,tag=339"`
	ModelPixelScaleTag        []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag          []float64 `tiff:"field,tag=33922"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag        []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag         string    `tiff:"field,tag=34737"`
	GDALMetadata              string    `tiff:"field,tag=42112"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

// A gdalMetadata is the XML document stored in the GDALMetadata tag.
type gdalMetadata struct {
	XMLName xml.Name `xml:"GDALMetadata"`
	Items   []struct {
		Name   string `xml:"name,attr"`
		Domain string `xml:"domain,attr"`
		Sample string `xml:"sample,attr"`
		Value  string `xml:",chardata"`
	} `xml:"Item"`
}

// A geoTIFFLayout describes how the samples of a GeoTIFF are stored.
type geoTIFFLayout struct {
	grid            Grid
	byteOrder       binary.ByteOrder
	compression     int
	bytesPerSample  int
	bands           int
	planes          int
	samplesPerPixel int
	blockWidth      int
	blockLength     int
	blocksAcross    int
	blocksDown      int
	tiled           bool
	blockOffsets    []uint64
	blockByteCounts []uint64
	noData          float64
	hasNoData       bool
	imageWidth      int
	imageLength     int
}

type readAtReadSeeker interface {
	io.ReaderAt
	io.ReadSeeker
}

// ReadGeoTIFF reads every band of the GeoTIFF file name in fsys.
func ReadGeoTIFF(fsys fs.FS, name string) ([]*Raster, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, ok := file.(readAtReadSeeker)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, errors.ErrUnsupported)
	}
	layout, err := readGeoTIFFLayout(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	bands, err := layout.readBands(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	rasters := make([]*Raster, len(bands))
	for i, cells := range bands {
		rasters[i] = newWithCells(layout.grid, cells)
	}
	return rasters, nil
}

// ReadGeoTIFFGrid returns the grid of the GeoTIFF file name in fsys without
// reading its samples.
func ReadGeoTIFFGrid(fsys fs.FS, name string) (Grid, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return Grid{}, err
	}
	defer file.Close()

	r, ok := file.(readAtReadSeeker)
	if !ok {
		return Grid{}, fmt.Errorf("%s: %w", name, errors.ErrUnsupported)
	}
	layout, err := readGeoTIFFLayout(r)
	if err != nil {
		return Grid{}, fmt.Errorf("%s: %w", name, err)
	}
	return layout.grid, nil
}

func readGeoTIFFLayout(r readAtReadSeeker) (*geoTIFFLayout, error) {
	header := make([]byte, 2)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, err
	}
	var byteOrder binary.ByteOrder
	switch string(header) {
	case "II":
		byteOrder = binary.LittleEndian
	case "MM":
		byteOrder = binary.BigEndian
	default:
		return nil, fmt.Errorf("byte order %q: %w", header, errParse)
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	tiffTIFF, err := tiff.Parse(r, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, err
	}
	if len(tiffTIFF.IFDs()) == 0 {
		return nil, fmt.Errorf("no IFDs: %w", errParse)
	}

	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, err
	}

	l := &geoTIFFLayout{
		byteOrder:   byteOrder,
		compression: int(ifd.Compression),
		bands:       max(int(ifd.SamplesPerPixel), 1),
		imageWidth:  int(ifd.ImageWidth),
		imageLength: int(ifd.ImageLength),
	}

	switch l.compression {
	case compressionNone, compressionLZW:
	default:
		return nil, fmt.Errorf("compression %d: %w", l.compression, errors.ErrUnsupported)
	}
	if ifd.Predictor > 1 {
		return nil, fmt.Errorf("predictor %d: %w", ifd.Predictor, errors.ErrUnsupported)
	}
	if len(ifd.BitsPerSample) == 0 {
		return nil, fmt.Errorf("no bits per sample: %w", errors.ErrUnsupported)
	}
	bitsPerSample := ifd.BitsPerSample[0]
	for _, bits := range ifd.BitsPerSample {
		if bits != bitsPerSample {
			return nil, fmt.Errorf("mixed bits per sample: %w", errors.ErrUnsupported)
		}
	}
	switch bitsPerSample {
	case 32, 64:
		l.bytesPerSample = int(bitsPerSample) / 8
	default:
		return nil, fmt.Errorf("%d bits per sample: %w", bitsPerSample, errors.ErrUnsupported)
	}
	if len(ifd.SampleFormat) == 0 {
		return nil, fmt.Errorf("integer samples: %w", errors.ErrUnsupported)
	}
	for _, sampleFormat := range ifd.SampleFormat {
		if sampleFormat != sampleFormatIEEEFP {
			return nil, fmt.Errorf("sample format %d: %w", sampleFormat, errors.ErrUnsupported)
		}
	}

	switch ifd.PlanarConfiguration {
	case 0, planarConfigurationChunky:
		l.planes = 1
		l.samplesPerPixel = l.bands
	case planarConfigurationPlanar:
		l.planes = l.bands
		l.samplesPerPixel = 1
	default:
		return nil, fmt.Errorf("planar configuration %d: %w", ifd.PlanarConfiguration, errors.ErrUnsupported)
	}

	if ifd.ImageWidth == 0 || ifd.ImageLength == 0 || ifd.ImageWidth > math.MaxInt32 || ifd.ImageLength > math.MaxInt32 {
		return nil, fmt.Errorf("%dx%d image: %w", ifd.ImageWidth, ifd.ImageLength, errParse)
	}
	if ifd.TileWidth != 0 && ifd.TileLength != 0 {
		if ifd.TileWidth > math.MaxInt32 || ifd.TileLength > math.MaxInt32 {
			return nil, fmt.Errorf("%dx%d tile: %w", ifd.TileWidth, ifd.TileLength, errParse)
		}
		l.tiled = true
		l.blockWidth = int(ifd.TileWidth)
		l.blockLength = int(ifd.TileLength)
		l.blockOffsets = ifd.TileOffsets
		l.blockByteCounts = ifd.TileByteCounts
	} else {
		l.blockWidth = l.imageWidth
		l.blockLength = int(ifd.RowsPerStrip)
		if l.blockLength <= 0 || l.blockLength > l.imageLength {
			l.blockLength = l.imageLength
		}
		l.blockOffsets = ifd.StripOffsets
		l.blockByteCounts = ifd.StripByteCounts
	}
	if err := l.checkSize(size); err != nil {
		return nil, err
	}
	l.blocksAcross = (l.imageWidth + l.blockWidth - 1) / l.blockWidth
	l.blocksDown = (l.imageLength + l.blockLength - 1) / l.blockLength
	blocks := l.planes * l.blocksAcross * l.blocksDown
	if len(l.blockOffsets) != blocks || len(l.blockByteCounts) != blocks {
		return nil, errors.New("incorrect number of block byte counts or offsets")
	}

	if noData := strings.Trim(ifd.GDALNoData, " \x00"); noData != "" {
		value, err := strconv.ParseFloat(noData, 64)
		if err != nil {
			return nil, fmt.Errorf("nodata %q: %w", noData, err)
		}
		l.noData = value
		l.hasNoData = true
	}

	var geoKeys *ParsedGeoKeys
	if len(ifd.GeoKeyDirectoryTag) != 0 {
		geoKeys, err = ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
		if err != nil {
			return nil, err
		}
	}
	geoTransform, err := geoTransformFromIFD(&ifd, geoKeys)
	if err != nil {
		return nil, err
	}
	crs, err := crsFromIFD(&ifd, geoKeys)
	if err != nil {
		return nil, err
	}
	l.grid, err = NewGridFromGeoTransform(crs, geoTransform, l.imageWidth, l.imageLength)
	if err != nil {
		return nil, err
	}

	return l, nil
}

// geoTransformFromIFD returns the geotransform of the corner of the top left
// pixel. geoKeys may be nil.
func geoTransformFromIFD(ifd *geoTIFFIFD, geoKeys *ParsedGeoKeys) ([6]float64, error) {
	if len(ifd.ModelPixelScaleTag) != 3 || len(ifd.ModelTiepointTag) < 6 {
		return [6]float64{}, fmt.Errorf("no georeferencing: %w", errors.ErrUnsupported)
	}
	scaleX, scaleY := ifd.ModelPixelScaleTag[0], ifd.ModelPixelScaleTag[1]
	i, j := ifd.ModelTiepointTag[0], ifd.ModelTiepointTag[1]
	x, y := ifd.ModelTiepointTag[3], ifd.ModelTiepointTag[4]
	if geoKeys != nil && geoKeys.Params[GeoKeyGTRasterType] == rasterTypePixelIsPoint {
		// The tie point is the center of the pixel.
		i += 0.5
		j += 0.5
	}
	return [6]float64{x - i*scaleX, scaleX, 0, y + j*scaleY, 0, -scaleY}, nil
}

// crsFromIFD returns the CRS stored verbatim in the GDAL metadata, falling back
// to the EPSG code in geoKeys, which may be nil.
func crsFromIFD(ifd *geoTIFFIFD, geoKeys *ParsedGeoKeys) (CRS, error) {
	if metadata := strings.Trim(ifd.GDALMetadata, "\x00"); metadata != "" {
		var m gdalMetadata
		if err := xml.Unmarshal([]byte(metadata), &m); err != nil {
			return "", fmt.Errorf("GDAL metadata: %w", err)
		}
		for _, item := range m.Items {
			if item.Name == crsMetadataKey && item.Domain == "" && item.Sample == "" {
				return CRS(item.Value).Normalize(), nil
			}
		}
	}
	if geoKeys == nil {
		return "", nil
	}
	return geoKeys.CRS(), nil
}

// checkSize checks that every block lies within the first size bytes of the
// file and that the decoded image could be encoded in that many bytes.
func (l *geoTIFFLayout) checkSize(size int64) error {
	if l.blockWidth <= 0 || l.blockLength <= 0 {
		return fmt.Errorf("%dx%d block: %w", l.blockWidth, l.blockLength, errParse)
	}
	limit := uint64(size)
	if l.compression == compressionLZW {
		if limit > math.MaxInt64/maxLZWExpansion {
			limit = math.MaxInt64
		} else {
			limit *= maxLZWExpansion
		}
	}
	bytesPerPixel := uint64(l.bands * l.bytesPerSample)
	if uint64(l.imageWidth) > limit/bytesPerPixel/uint64(l.imageLength) {
		return fmt.Errorf("%dx%d image exceeds %d byte file: %w", l.imageWidth, l.imageLength, size, errParse)
	}
	bytesPerBlockPixel := uint64(l.samplesPerPixel * l.bytesPerSample)
	if uint64(l.blockWidth) > limit/bytesPerBlockPixel/uint64(l.blockLength) {
		return fmt.Errorf("%dx%d block exceeds %d byte file: %w", l.blockWidth, l.blockLength, size, errParse)
	}
	if len(l.blockByteCounts) != len(l.blockOffsets) {
		return errors.New("incorrect number of block byte counts or offsets")
	}
	for i, offset := range l.blockOffsets {
		if byteCount := l.blockByteCounts[i]; offset > uint64(size) || byteCount > uint64(size)-offset {
			return fmt.Errorf("block %d: %d bytes at offset %d exceed %d byte file: %w", i, byteCount, offset, size, errParse)
		}
	}
	return nil
}

// readBands returns the samples of every band.
func (l *geoTIFFLayout) readBands(r io.ReaderAt) ([][]float64, error) {
	bands := make([][]float64, l.bands)
	for i := range bands {
		bands[i] = make([]float64, l.imageWidth*l.imageLength)
	}
	blocksPerPlane := l.blocksAcross * l.blocksDown
	for plane := range l.planes {
		for blockRow := range l.blocksDown {
			for blockCol := range l.blocksAcross {
				blockIndex := plane*blocksPerPlane + blockRow*l.blocksAcross + blockCol
				blockSamples, err := l.readBlock(r, blockIndex, blockRow)
				if err != nil {
					return nil, fmt.Errorf("block %d: %w", blockIndex, err)
				}
				l.placeBlock(bands, plane, blockRow, blockCol, blockSamples)
			}
		}
	}
	return bands, nil
}

// blockRows returns the number of rows stored in the block in blockRow. The
// last strip of a stripped image may be short.
func (l *geoTIFFLayout) blockRows(blockRow int) int {
	if l.tiled {
		return l.blockLength
	}
	return min(l.blockLength, l.imageLength-blockRow*l.blockLength)
}

// readBlock reads, decompresses, and decodes a single block.
func (l *geoTIFFLayout) readBlock(r io.ReaderAt, blockIndex, blockRow int) ([]float64, error) {
	byteCount := l.blockByteCounts[blockIndex]
	compressedData := make([]byte, byteCount)
	switch n, err := r.ReadAt(compressedData, int64(l.blockOffsets[blockIndex])); {
	case n == int(byteCount):
	case err != nil:
		return nil, err
	default:
		return nil, errShortRead
	}

	sampleCount := l.blockWidth * l.blockRows(blockRow) * l.samplesPerPixel
	byteCountUncompressed := sampleCount * l.bytesPerSample
	var data []byte
	switch l.compression {
	case compressionLZW:
		data = make([]byte, byteCountUncompressed)
		lzwReader := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
		defer lzwReader.Close()
		if _, err := io.ReadFull(lzwReader, data); err != nil {
			return nil, err
		}
	default:
		if len(compressedData) < byteCountUncompressed {
			return nil, errShortRead
		}
		data = compressedData
	}

	samples := make([]float64, sampleCount)
	for i := range samples {
		var sample float64
		switch l.bytesPerSample {
		case 4:
			sample32 := math.Float32frombits(l.byteOrder.Uint32(data[4*i : 4*i+4]))
			if l.hasNoData && sample32 == float32(l.noData) {
				sample = NoData
			} else {
				sample = float64(sample32)
			}
		case 8:
			sample = math.Float64frombits(l.byteOrder.Uint64(data[8*i : 8*i+8]))
			if l.hasNoData && sample == l.noData {
				sample = NoData
			}
		}
		samples[i] = sample
	}
	return samples, nil
}

// placeBlock copies the samples of a block into bands, discarding samples that
// lie outside the image.
func (l *geoTIFFLayout) placeBlock(bands [][]float64, plane, blockRow, blockCol int, blockSamples []float64) {
	row0 := blockRow * l.blockLength
	col0 := blockCol * l.blockWidth
	rows := l.blockRows(blockRow)
	for r := range rows {
		row := row0 + r
		if row >= l.imageLength {
			break
		}
		for c := range l.blockWidth {
			col := col0 + c
			if col >= l.imageWidth {
				break
			}
			for s := range l.samplesPerPixel {
				sample := blockSamples[(r*l.blockWidth+c)*l.samplesPerPixel+s]
				bands[plane+s][row*l.imageWidth+col] = sample
			}
		}
	}
}
