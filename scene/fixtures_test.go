package scene

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const s1Name = "S1A_IW_GRDH_1SDV_20150222T170750_20150222T170815_004739_005DD8_3768"

const s2Name = "S2B_MSIL2A_20200202T104149_N0213_R008_T32UMB_20200202T123131"

const s1Manifest = `<?xml version="1.0" encoding="UTF-8"?>
<xfdu:XFDU xmlns:xfdu="urn:ccsds:schema:xfdu:1" xmlns:safe="http://www.esa.int/safe/sentinel-1.0"
	xmlns:s1="http://www.esa.int/safe/sentinel-1.0/sentinel-1"
	xmlns:s1sarl1="http://www.esa.int/safe/sentinel-1.0/sentinel-1/sar/level-1"
	xmlns:gml="http://www.opengis.net/gml">
  <metadataSection>
    <metadataObject ID="measurementOrbitReference">
      <metadataWrap><xmlData>
        <safe:orbitReference>
          <safe:orbitNumber type="start">4739</safe:orbitNumber>
          <safe:orbitNumber type="stop">4739</safe:orbitNumber>
          <safe:relativeOrbitNumber type="start">117</safe:relativeOrbitNumber>
          <safe:relativeOrbitNumber type="stop">117</safe:relativeOrbitNumber>
          <safe:cycleNumber>30</safe:cycleNumber>
          <safe:extension><s1:orbitProperties><s1:pass>ASCENDING</s1:pass></s1:orbitProperties></safe:extension>
        </safe:orbitReference>
      </xmlData></metadataWrap>
    </metadataObject>
    <metadataObject ID="generalProductInformation">
      <metadataWrap><xmlData>
        <s1sarl1:standAloneProductInformation>
          <s1sarl1:productClass>S</s1sarl1:productClass>
          <s1sarl1:missionDataTakeID>24024</s1sarl1:missionDataTakeID>
          <s1sarl1:transmitterReceiverPolarisation>VV</s1sarl1:transmitterReceiverPolarisation>
          <s1sarl1:transmitterReceiverPolarisation>VH</s1sarl1:transmitterReceiverPolarisation>
        </s1sarl1:standAloneProductInformation>
      </xmlData></metadataWrap>
    </metadataObject>
    <metadataObject ID="measurementFrameSet">
      <metadataWrap><xmlData>
        <safe:frameSet><safe:frame><safe:footPrint srsName="http://www.opengis.net/gml/srs/epsg.xml#4326">
          <gml:coordinates>51.5,7.1 51.9,3.5 50.3,3.1 49.9,6.6</gml:coordinates>
        </safe:footPrint></safe:frame></safe:frameSet>
      </xmlData></metadataWrap>
    </metadataObject>
  </metadataSection>
</xfdu:XFDU>`

const s1Annotation = `<?xml version="1.0" encoding="UTF-8"?>
<product>
  <imageAnnotation>
    <imageInformation>
      <numberOfSamples>25234</numberOfSamples>
      <numberOfLines>16748</numberOfLines>
    </imageInformation>
  </imageAnnotation>
</product>`

const s2Metadata = `<?xml version="1.0" encoding="UTF-8"?>
<n1:Level-2A_User_Product xmlns:n1="https://psd-14.sentinel2.eo.esa.int/PSD/User_Product_Level-2A.xsd">
  <n1:General_Info>
    <Product_Info>
      <PRODUCT_START_TIME>2020-02-02T10:41:49.024Z</PRODUCT_START_TIME>
      <PRODUCT_STOP_TIME>2020-02-02T10:41:49.024Z</PRODUCT_STOP_TIME>
      <PRODUCT_URI>S2B_MSIL2A_20200202T104149_N0213_R008_T32UMB_20200202T123131.SAFE</PRODUCT_URI>
      <PROCESSING_LEVEL>Level-2A</PROCESSING_LEVEL>
      <PRODUCT_TYPE>S2MSI2A</PRODUCT_TYPE>
      <PROCESSING_BASELINE>02.13</PROCESSING_BASELINE>
      <GENERATION_TIME>2020-02-02T12:31:31.000000Z</GENERATION_TIME>
      <PREVIEW_IMAGE_URL>Not applicable</PREVIEW_IMAGE_URL>
      <Datatake datatakeIdentifier="GS2B_20200202T104149_015192_N02.13">
        <SPACECRAFT_NAME>Sentinel-2B</SPACECRAFT_NAME>
        <DATATAKE_TYPE>INS-NOBS</DATATAKE_TYPE>
        <DATATAKE_SENSING_START>2020-02-02T10:41:49.024Z</DATATAKE_SENSING_START>
        <SENSING_ORBIT_NUMBER>8</SENSING_ORBIT_NUMBER>
        <SENSING_ORBIT_DIRECTION>DESCENDING</SENSING_ORBIT_DIRECTION>
      </Datatake>
    </Product_Info>
    <Product_Image_Characteristics>
      <Special_Values>
        <SPECIAL_VALUE_TEXT>NODATA</SPECIAL_VALUE_TEXT>
        <SPECIAL_VALUE_INDEX>0</SPECIAL_VALUE_INDEX>
      </Special_Values>
      <Special_Values>
        <SPECIAL_VALUE_TEXT>SATURATED</SPECIAL_VALUE_TEXT>
        <SPECIAL_VALUE_INDEX>65535</SPECIAL_VALUE_INDEX>
      </Special_Values>
      <QUANTIFICATION_VALUES_LIST>
        <BOA_QUANTIFICATION_VALUE unit="none">10000</BOA_QUANTIFICATION_VALUE>
        <AOT_QUANTIFICATION_VALUE unit="none">1000.0</AOT_QUANTIFICATION_VALUE>
        <WVP_QUANTIFICATION_VALUE unit="cm">1000.0</WVP_QUANTIFICATION_VALUE>
      </QUANTIFICATION_VALUES_LIST>
      <Reflectance_Conversion>
        <U>1.03090709722802</U>
      </Reflectance_Conversion>
    </Product_Image_Characteristics>
  </n1:General_Info>
  <n1:Geometric_Info>
    <Product_Footprint><Product_Footprint><Global_Footprint>
      <EXT_POS_LIST>45.0 9.0 45.0 10.4 44.0 10.4 44.0 9.0 45.0 9.0 </EXT_POS_LIST>
    </Global_Footprint></Product_Footprint></Product_Footprint>
  </n1:Geometric_Info>
  <n1:Quality_Indicators_Info>
    <Cloud_Coverage_Assessment>95.271085</Cloud_Coverage_Assessment>
    <Technical_Quality_Assessment>
      <DEGRADED_ANC_DATA_PERCENTAGE>0.0</DEGRADED_ANC_DATA_PERCENTAGE>
    </Technical_Quality_Assessment>
    <Quality_Control_Checks><Quality_Inspections>
      <quality_check checkType="FORMAT_CORRECTNESS">PASSED</quality_check>
      <quality_check checkType="SENSOR_QUALITY">PASSED</quality_check>
    </Quality_Inspections></Quality_Control_Checks>
  </n1:Quality_Indicators_Info>
</n1:Level-2A_User_Product>`

// writeArchive zips files into dir/name and returns the archive path
func writeArchive(t *testing.T, dir string, name string, files map[string]string) string {
	archivePath := filepath.Join(dir, name)
	out, err := os.Create(archivePath)
	assert.Nil(t, err)
	defer out.Close()

	writer := zip.NewWriter(out)
	for member, content := range files {
		w, err := writer.Create(member)
		assert.Nil(t, err)
		_, err = w.Write([]byte(content))
		assert.Nil(t, err)
	}
	assert.Nil(t, writer.Close())
	return archivePath
}

func writeSentinel1Archive(t *testing.T, dir string) string {
	return writeArchive(t, dir, s1Name+".zip", map[string]string{
		s1Name + ".SAFE/manifest.safe":                           s1Manifest,
		s1Name + ".SAFE/annotation/s1a-iw-grd-vh-20150222.xml":   s1Annotation,
		s1Name + ".SAFE/annotation/calibration/calibration.xml": "<calibration/>",
	})
}

func writeSentinel2Archive(t *testing.T, dir string) string {
	return writeArchive(t, dir, s2Name+".zip", map[string]string{
		s2Name + ".SAFE/MTD_MSIL2A.xml": s2Metadata,
	})
}

func replaceOnce(s, old, replacement string) string {
	return strings.Replace(s, old, replacement, 1)
}
