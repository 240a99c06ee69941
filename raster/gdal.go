package raster

// #include "gdal.h"
// #include "gdalwarper.h"
// #include "gdal_alg.h"
// #include "ogr_api.h"
// #include "ogr_srs_api.h"
// #include "cpl_string.h"
// #include "cpl_conv.h"
// #cgo pkg-config: gdal
// int
// reproject_operation(GDALDatasetH hSrcDS, GDALDatasetH hDstDS)
// {
//        int err;
//        GDALWarpOptions *psWOptions;
//
//        psWOptions = GDALCreateWarpOptions();
//        psWOptions->nBandCount = 1;
//        psWOptions->panSrcBands = (int *) CPLMalloc(sizeof(int) * 1);
//        psWOptions->panSrcBands[0] = 1;
//        psWOptions->panDstBands = (int *) CPLMalloc(sizeof(int) * 1);
//        psWOptions->panDstBands[0] = 1;
//
//        err = GDALReprojectImage(hSrcDS, GDALGetProjectionRef(hSrcDS),
//                hDstDS, GDALGetProjectionRef(hDstDS),
//                GRA_NearestNeighbour, 0.0, 0.0, NULL, NULL, psWOptions);
//        GDALDestroyWarpOptions(psWOptions);
//
//        return err;
// }
import "C"

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"unsafe"

	geo "github.com/nci/geometry"
)

var gdalInitOnce sync.Once

func initGDAL() {
	C.GDALAllRegister()
}

// gdalBackend implements Backend and GeometryOps against GDAL/OGR/OSR.
// Pixel grids are pulled into memory at open time and clip is plain
// coordinate arithmetic, while reprojection and geometry transforms are
// delegated to the library.
type gdalBackend struct{}

func newGDALBackend() *gdalBackend {
	gdalInitOnce.Do(initGDAL)
	return &gdalBackend{}
}

var gdalTypeNames = map[C.GDALDataType]string{
	C.GDT_Byte: "Byte", C.GDT_UInt16: "UInt16", C.GDT_Int16: "Int16",
	C.GDT_UInt32: "UInt32", C.GDT_Int32: "Int32",
	C.GDT_Float32: "Float32", C.GDT_Float64: "Float64",
}

func (b *gdalBackend) Open(path string, opts map[string]string) (*Handle, error) {
	var cOpts **C.char
	for k, v := range opts {
		optC := C.CString(fmt.Sprintf("%s=%s", k, v))
		cOpts = (**C.char)(C.CSLAddString(cOpts, optC))
		C.free(unsafe.Pointer(optC))
	}
	if cOpts != nil {
		defer C.CSLDestroy(cOpts)
	}

	pathC := C.CString(path)
	defer C.free(unsafe.Pointer(pathC))
	ds := C.GDALOpenEx(pathC, C.GDAL_OF_READONLY|C.GDAL_OF_VERBOSE_ERROR, nil, cOpts, nil)
	if ds == nil {
		return nil, fmt.Errorf("GDALOpenEx() failed for %s", path)
	}
	defer C.GDALClose(ds)

	width := int(C.GDALGetRasterXSize(ds))
	height := int(C.GDALGetRasterYSize(ds))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("empty raster %s: %vx%v", path, width, height)
	}

	var geot [6]C.double
	if C.GDALGetGeoTransform(ds, &geot[0]) != C.CE_None {
		return nil, fmt.Errorf("raster %s has no geotransform", path)
	}

	band := C.GDALGetRasterBand(ds, 1)
	if band == nil {
		return nil, fmt.Errorf("raster %s has no bands", path)
	}
	dType := C.GDALGetRasterDataType(band)
	dTypeName, known := gdalTypeNames[dType]
	if !known {
		return nil, fmt.Errorf("GDAL data type %v not supported", int(dType))
	}
	nodata := float64(C.GDALGetRasterNoDataValue(band, nil))

	// Band values are read through GDAL's type conversion into a float64
	// grid so the handle is uniform regardless of the on-disk dtype.
	data := make([]float64, width*height)
	gerr := C.GDALRasterIO(band, C.GF_Read, 0, 0, C.int(width), C.int(height),
		unsafe.Pointer(&data[0]), C.int(width), C.int(height), C.GDT_Float64, 0, 0)
	if gerr != C.CE_None {
		return nil, fmt.Errorf("GDALRasterIO() failed for %s", path)
	}

	return handleFromGrid(C.GoString(C.GDALGetProjectionRef(ds)), geotToFloats(geot), width, height, dTypeName, nodata, data), nil
}

func geotToFloats(geot [6]C.double) [6]float64 {
	var out [6]float64
	for i, v := range geot {
		out[i] = float64(v)
	}
	return out
}

// handleFromGrid derives the handle metadata from a geotransform: cell-center
// coordinate axes, outer-edge bounds and the scalar resolution (abs of the
// x-axis component).
func handleFromGrid(crs string, geot [6]float64, width, height int, dtype string, nodata float64, data []float64) *Handle {
	xRes, yRes := geot[1], geot[5]
	xCoords := make([]float64, width)
	for j := range xCoords {
		xCoords[j] = geot[0] + (float64(j)+0.5)*xRes
	}
	yCoords := make([]float64, height)
	for i := range yCoords {
		yCoords[i] = geot[3] + (float64(i)+0.5)*yRes
	}
	return &Handle{
		CRS:        crs,
		Resolution: math.Abs(xRes),
		Bounds:     boundsFromAxes(xCoords, yCoords, math.Abs(xRes), math.Abs(yRes)),
		DType:      dtype,
		NoData:     nodata,
		Data:       data,
		XCoords:    xCoords,
		YCoords:    yCoords,
	}
}

func (b *gdalBackend) ClipBox(h *Handle, box BoundingBox) (*Handle, error) {
	return clipHandle(h, box)
}

// Reproject warps h into dstCRS through a pair of in-memory GDAL datasets.
// The output grid shape comes from GDALSuggestedWarpOutput and the canvas is
// pre-filled with the nodata value, since the warp only writes cells covered
// by the source.
func (b *gdalBackend) Reproject(h *Handle, dstCRS string) (*Handle, error) {
	srcDS, err := memDataset(h.Data, h.Width(), h.Height(), h.CRS, [6]float64{
		h.Bounds.MinX, axisStep(h.XCoords, h.Resolution), 0,
		h.Bounds.MaxY, 0, -axisStep(h.YCoords, h.Resolution),
	})
	if err != nil {
		return nil, err
	}
	defer C.GDALClose(srcDS)

	dstWKT, err := userInputToWKT(dstCRS)
	if err != nil {
		return nil, err
	}
	dstWKTC := C.CString(dstWKT)
	defer C.free(unsafe.Pointer(dstWKTC))

	transformArg := C.GDALCreateGenImgProjTransformer(srcDS, nil, nil, dstWKTC, C.int(0), C.double(0), C.int(0))
	if transformArg == nil {
		return nil, fmt.Errorf("GDALCreateGenImgProjTransformer() failed")
	}
	defer C.GDALDestroyGenImgProjTransformer(transformArg)
	transformInfo := (*C.GDALTransformerInfo)(transformArg)

	var dstGeotC [6]C.double
	var dstWidth, dstHeight C.int
	gerr := C.GDALSuggestedWarpOutput(srcDS, transformInfo.pfnTransform, transformArg, &dstGeotC[0], &dstWidth, &dstHeight)
	if gerr != C.CE_None {
		return nil, fmt.Errorf("GDALSuggestedWarpOutput() failed")
	}

	canvas := make([]float64, int(dstWidth)*int(dstHeight))
	for i := range canvas {
		canvas[i] = h.NoData
	}
	dstGeot := geotToFloats(dstGeotC)
	dstDS, err := memDataset(canvas, int(dstWidth), int(dstHeight), dstWKT, dstGeot)
	if err != nil {
		return nil, err
	}
	defer C.GDALClose(dstDS)
	C.GDALSetRasterNoDataValue(C.GDALGetRasterBand(dstDS, 1), C.double(h.NoData))

	if C.reproject_operation(srcDS, dstDS) != C.CE_None {
		return nil, fmt.Errorf("reproject_operation() failed for CRS %q", dstCRS)
	}

	return handleFromGrid(dstWKT, dstGeot, int(dstWidth), int(dstHeight), h.DType, h.NoData, canvas), nil
}

// memDataset wraps a float64 grid as an updatable in-memory GDAL dataset.
// The dataset aliases the slice; it must be closed before the slice is
// garbage collected.
func memDataset(data []float64, width, height int, crs string, geot [6]float64) (C.GDALDatasetH, error) {
	memStr := C.CString(fmt.Sprintf("MEM:::DATAPOINTER=%d,PIXELS=%d,LINES=%d,DATATYPE=Float64",
		uintptr(unsafe.Pointer(&data[0])), width, height))
	defer C.free(unsafe.Pointer(memStr))
	ds := C.GDALOpen(memStr, C.GA_Update)
	if ds == nil {
		return nil, fmt.Errorf("GDALOpen() failed for MEM dataset")
	}

	wkt, err := userInputToWKT(crs)
	if err != nil {
		C.GDALClose(ds)
		return nil, err
	}
	wktC := C.CString(wkt)
	defer C.free(unsafe.Pointer(wktC))
	C.GDALSetProjection(ds, wktC)

	var geotC [6]C.double
	for i, v := range geot {
		geotC[i] = C.double(v)
	}
	C.GDALSetGeoTransform(ds, &geotC[0])
	return ds, nil
}

// userInputToWKT normalizes a CRS identifier (EPSG code, proj string or WKT)
// to WKT through OSR.
func userInputToWKT(crs string) (string, error) {
	srs, err := srsFromUserInput(crs)
	if err != nil {
		return "", err
	}
	defer C.OSRDestroySpatialReference(srs)

	var wktC *C.char
	if C.OSRExportToWkt(srs, &wktC) != C.OGRERR_NONE {
		return "", fmt.Errorf("OSRExportToWkt() failed for CRS %q", crs)
	}
	wkt := C.GoString(wktC)
	C.CPLFree(unsafe.Pointer(wktC))
	return wkt, nil
}

func srsFromUserInput(crs string) (C.OGRSpatialReferenceH, error) {
	crsC := C.CString(crs)
	defer C.free(unsafe.Pointer(crsC))
	srs := C.OSRNewSpatialReference(nil)
	if C.OSRSetFromUserInput(srs, crsC) != C.OGRERR_NONE {
		C.OSRDestroySpatialReference(srs)
		return nil, fmt.Errorf("CRS %q could not be parsed", crs)
	}
	return srs, nil
}

// Transform reprojects a GeoJSON geometry between two CRSs through OGR.
func (b *gdalBackend) Transform(g geo.Geometry, srcCRS, dstCRS string) (geo.Geometry, error) {
	var out geo.Geometry

	ogrGeom, err := ogrFromGeometry(g)
	if err != nil {
		return out, err
	}
	defer C.OGR_G_DestroyGeometry(ogrGeom)

	srcSRS, err := srsFromUserInput(srcCRS)
	if err != nil {
		return out, err
	}
	defer C.OSRDestroySpatialReference(srcSRS)
	dstSRS, err := srsFromUserInput(dstCRS)
	if err != nil {
		return out, err
	}
	defer C.OSRDestroySpatialReference(dstSRS)

	trans := C.OCTNewCoordinateTransformation(srcSRS, dstSRS)
	if trans == nil {
		return out, fmt.Errorf("no coordinate transformation from %q to %q", srcCRS, dstCRS)
	}
	defer C.OCTDestroyCoordinateTransformation(trans)

	if C.OGR_G_Transform(ogrGeom, trans) != C.OGRERR_NONE {
		return out, fmt.Errorf("OGR_G_Transform() failed from %q to %q", srcCRS, dstCRS)
	}

	jsonC := C.OGR_G_ExportToJson(ogrGeom)
	if jsonC == nil {
		return out, fmt.Errorf("OGR_G_ExportToJson() failed")
	}
	defer C.CPLFree(unsafe.Pointer(jsonC))

	// geo.Geometry round-trips through a Feature wrapper.
	var feat geo.Feature
	wrapped := fmt.Sprintf(`{"type":"Feature","geometry":%s}`, C.GoString(jsonC))
	if err := json.Unmarshal([]byte(wrapped), &feat); err != nil {
		return out, fmt.Errorf("problem unmarshalling transformed geometry: %v", err)
	}
	return feat.Geometry, nil
}

func (b *gdalBackend) Bounds(g geo.Geometry) (BoundingBox, error) {
	ogrGeom, err := ogrFromGeometry(g)
	if err != nil {
		return BoundingBox{}, err
	}
	defer C.OGR_G_DestroyGeometry(ogrGeom)

	var env C.OGREnvelope
	C.OGR_G_GetEnvelope(ogrGeom, &env)
	return NewBoundingBox(float64(env.MinX), float64(env.MinY), float64(env.MaxX), float64(env.MaxY))
}

func (b *gdalBackend) CRSMatch(a, bCRS string) (bool, error) {
	srsA, err := srsFromUserInput(a)
	if err != nil {
		return false, err
	}
	defer C.OSRDestroySpatialReference(srsA)
	srsB, err := srsFromUserInput(bCRS)
	if err != nil {
		return false, err
	}
	defer C.OSRDestroySpatialReference(srsB)
	return C.OSRIsSame(srsA, srsB) != 0, nil
}

func ogrFromGeometry(g geo.Geometry) (C.OGRGeometryH, error) {
	geomJSON, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("problem marshaling GeoJSON geometry: %v", err)
	}
	geomC := C.CString(string(geomJSON))
	defer C.free(unsafe.Pointer(geomC))
	ogrGeom := C.OGR_G_CreateGeometryFromJson(geomC)
	if ogrGeom == nil {
		return nil, fmt.Errorf("geometry %s could not be parsed", geomJSON)
	}
	return ogrGeom, nil
}
