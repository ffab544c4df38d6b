package models_test

import (
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/tallyplan/backend/internal/models"
	"github.com/tallyplan/backend/test"
)

type TestSuiteStandard struct {
	suite.Suite
}

func TestStandard(t *testing.T) {
	suite.Run(t, new(TestSuiteStandard))
}

func (suite *TestSuiteStandard) SetupTest() {
	err := models.Connect(test.TmpFile(suite.T()))
	if err != nil {
		log.Fatalf("Database connection failed with: %#v", err)
	}
}

// TearDownTest is called after each test in the suite
func (suite *TestSuiteStandard) TearDownTest() {
	sqlDB, _ := models.DB.DB()
	sqlDB.Close()
}

func (suite *TestSuiteStandard) createTestProject(name string) models.Project {
	project := models.Project{
		Name:          name,
		ContractTotal: decimal.NewFromInt(10000),
	}
	require.NoError(suite.T(), models.DB.Create(&project).Error)

	return project
}

func (suite *TestSuiteStandard) TestProjectTrimWhitespace() {
	project := models.Project{
		Name: " Harbor Bridge Renovation\t",
		Note: "  Fixed-price engagement ",
	}
	require.NoError(suite.T(), models.DB.Create(&project).Error)

	assert.Equal(suite.T(), "Harbor Bridge Renovation", project.Name)
	assert.Equal(suite.T(), "Fixed-price engagement", project.Note)
}

func (suite *TestSuiteStandard) TestProjectNameNotUnique() {
	_ = suite.createTestProject("Harbor Bridge Renovation")

	duplicate := models.Project{Name: "Harbor Bridge Renovation"}
	err := models.DB.Create(&duplicate).Error
	assert.ErrorIs(suite.T(), err, models.ErrProjectNameNotUnique)
}

func (suite *TestSuiteStandard) TestProjectContractTotalNegative() {
	project := models.Project{
		Name:          "Harbor Bridge Renovation",
		ContractTotal: decimal.NewFromInt(-1),
	}

	err := models.DB.Create(&project).Error
	assert.ErrorIs(suite.T(), err, models.ErrContractTotalNegative)
}

func (suite *TestSuiteStandard) TestProjectGetsServerID() {
	project := suite.createTestProject("Harbor Bridge Renovation")

	assert.NotEqual(suite.T(), uuid.Nil, project.ID)
	assert.Equal(suite.T(), uuid.Version(4), project.ID.Version())
}

func (suite *TestSuiteStandard) TestTimestampsInUTC() {
	_ = suite.createTestProject("Harbor Bridge Renovation")

	var project models.Project
	require.NoError(suite.T(), models.DB.First(&project).Error)

	assert.Equal(suite.T(), time.UTC, project.CreatedAt.Location())
	assert.Equal(suite.T(), time.UTC, project.UpdatedAt.Location())
}

func (suite *TestSuiteStandard) TestScheduleItemRequiresProject() {
	item := models.ScheduleItem{
		ProjectID: uuid.New(),
		Label:     "Kickoff payment",
		Mode:      "PERCENTAGE",
	}

	err := models.DB.Create(&item).Error
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestScheduleItemProjectChangeChecked() {
	project := suite.createTestProject("Harbor Bridge Renovation")

	item := models.ScheduleItem{
		ProjectID: project.ID,
		Label:     "Kickoff payment",
		Mode:      "PERCENTAGE",
	}
	require.NoError(suite.T(), models.DB.Create(&item).Error)

	err := models.DB.Model(&item).Select("ProjectID").Updates(models.ScheduleItem{ProjectID: uuid.New()}).Error
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestResourceNotFoundMessage() {
	err := models.DB.First(&models.Project{}, uuid.New()).Error

	require.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
	assert.Equal(suite.T(), "there is no project matching your query", err.Error())
}

func (suite *TestSuiteStandard) TestConnectInvalidPath() {
	assert.Error(suite.T(), models.Connect("/this/path/does/not/exist/db.sqlite"))
}
